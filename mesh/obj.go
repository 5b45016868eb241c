package mesh

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// FromOBJ loads a triangle mesh from a Wavefront OBJ file.
// Only v and f records are read; faces must be triangles.
func FromOBJ(path string) (*Mesh, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening mesh: %w", err)
	}
	defer file.Close()

	var positions []r3.Vec
	var faces [][3]int

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("obj line %d: vertex needs 3 coordinates", lineNum)
			}
			var p r3.Vec
			var errs [3]error
			p.X, errs[0] = strconv.ParseFloat(fields[1], 64)
			p.Y, errs[1] = strconv.ParseFloat(fields[2], 64)
			p.Z, errs[2] = strconv.ParseFloat(fields[3], 64)
			for _, e := range errs {
				if e != nil {
					return nil, fmt.Errorf("obj line %d: %w", lineNum, e)
				}
			}
			positions = append(positions, p)
		case "f":
			if len(fields) != 4 {
				return nil, fmt.Errorf("obj line %d: only triangle faces are supported", lineNum)
			}
			var face [3]int
			for i := 0; i < 3; i++ {
				// OBJ faces may carry texture/normal refs: v/vt/vn
				idxStr := strings.SplitN(fields[i+1], "/", 2)[0]
				idx, err := strconv.Atoi(idxStr)
				if err != nil {
					return nil, fmt.Errorf("obj line %d: %w", lineNum, err)
				}
				if idx < 0 {
					idx = len(positions) + idx + 1
				}
				face[i] = idx - 1
			}
			faces = append(faces, face)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading mesh: %w", err)
	}
	if len(faces) == 0 {
		return nil, fmt.Errorf("obj %s: no faces", path)
	}

	return New(positions, faces)
}
