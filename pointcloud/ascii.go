package pointcloud

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

const asciiCommentChar = "#"

// ReadASCII reads samples stored one per line as "x y z" or "x y z nx ny nz". The number
// of values on the first line decides which of the two layouts the whole file uses.
func ReadASCII(in io.Reader) (*Cloud, error) {
	scanner := bufio.NewScanner(in)
	cloud := New()

	fields := 0
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line, _, _ := strings.Cut(scanner.Text(), asciiCommentChar)
		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}
		if fields == 0 {
			switch len(tokens) {
			case 3, 6:
				fields = len(tokens)
			default:
				return nil, errors.Errorf("line %d: expected 3 or 6 values per point but got %d", lineNum, len(tokens))
			}
		}
		if len(tokens) != fields {
			return nil, errors.Errorf("line %d: expected %d values but got %d", lineNum, fields, len(tokens))
		}
		values, err := parseFloats(tokens)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNum)
		}
		s, oriented := sampleFromValues(values)
		cloud.Add(s, oriented)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cloud, nil
}

// ReadOFF reads the vertices of an OFF file as unoriented samples; faces are ignored.
func ReadOFF(in io.Reader) (*Cloud, error) {
	scanner := bufio.NewScanner(in)
	nextLine := func() ([]string, bool) {
		for scanner.Scan() {
			line, _, _ := strings.Cut(scanner.Text(), asciiCommentChar)
			if tokens := strings.Fields(line); len(tokens) != 0 {
				return tokens, true
			}
		}
		return nil, false
	}

	tokens, ok := nextLine()
	if !ok || tokens[0] != "OFF" {
		return nil, errors.New("missing OFF header")
	}
	// the counts may follow the keyword on the same line
	tokens = tokens[1:]
	if len(tokens) == 0 {
		if tokens, ok = nextLine(); !ok {
			return nil, errors.New("missing OFF element counts")
		}
	}
	numVertices, err := strconv.Atoi(tokens[0])
	if err != nil || numVertices < 0 {
		return nil, errors.Errorf("invalid OFF vertex count %q", tokens[0])
	}

	cloud := NewWithPrealloc(numVertices)
	for i := 0; i < numVertices; i++ {
		tokens, ok := nextLine()
		if !ok {
			return nil, errors.Errorf("expected %d vertices but got %d", numVertices, i)
		}
		if len(tokens) != 3 && len(tokens) != 6 {
			return nil, errors.Errorf("vertex %d: expected 3 or 6 values but got %d", i, len(tokens))
		}
		values, err := parseFloats(tokens)
		if err != nil {
			return nil, errors.Wrapf(err, "vertex %d", i)
		}
		s, oriented := sampleFromValues(values)
		cloud.Add(s, oriented)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cloud, nil
}

// WriteASCII writes the selected samples one per line, position then normal, tab separated.
func WriteASCII(samples []*Sample, out io.Writer) error {
	w := bufio.NewWriter(out)
	for _, s := range samples {
		if !s.IsSelected() {
			continue
		}
		if err := writeSampleLine(w, s); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteOFF writes the selected samples as the vertices of an OFF file with no faces.
func WriteOFF(samples []*Sample, out io.Writer) error {
	selected := Selected(samples)
	w := bufio.NewWriter(out)
	if _, err := fmt.Fprintf(w, "OFF\n%d\t0\t0\n", len(selected)); err != nil {
		return err
	}
	for _, s := range selected {
		if err := writeSampleLine(w, s); err != nil {
			return err
		}
	}
	return w.Flush()
}

func writeSampleLine(w io.Writer, s *Sample) error {
	p, n := s.Position(), s.Normal()
	_, err := fmt.Fprintf(w, "%.8f\t%.8f\t%.8f\t%.8f\t%.8f\t%.8f\n", p.X, p.Y, p.Z, n.X, n.Y, n.Z)
	return err
}

func parseFloats(tokens []string) ([]float64, error) {
	values := make([]float64, len(tokens))
	for i, token := range tokens {
		v, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return nil, errors.Errorf("invalid value %q", token)
		}
		values[i] = v
	}
	return values, nil
}

func sampleFromValues(values []float64) (*Sample, bool) {
	p := r3.Vector{X: values[0], Y: values[1], Z: values[2]}
	if len(values) < 6 {
		return NewSample(p), false
	}
	return NewOrientedSample(p, r3.Vector{X: values[3], Y: values[4], Z: values[5]}), true
}
