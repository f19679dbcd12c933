package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/edaniels/golog"
	"github.com/edaniels/lidario"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// PCDType is the format of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = 0
	// PCDBinary binary format for pcd.
	PCDBinary PCDType = 1
	// PCDCompressed binary format for pcd.
	PCDCompressed PCDType = 2
)

// NewFromFile returns the samples read in from the given file. The format is chosen by
// the file extension.
func NewFromFile(fn string, logger golog.Logger) (*Cloud, error) {
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".las":
		return NewFromLASFile(fn, logger)
	case ".pcd", ".off", ".asc", ".xyz", ".txt", ".pts", ".xyzn":
	default:
		return nil, errors.Errorf("do not know how to read file %q", fn)
	}

	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)

	switch strings.ToLower(filepath.Ext(fn)) {
	case ".pcd":
		return ReadPCD(f)
	case ".off":
		return ReadOFF(f)
	default:
		return ReadASCII(f)
	}
}

// WriteToFile writes the selected samples to the given file. The format is chosen by the
// file extension.
func WriteToFile(samples []*Sample, fn string) (err error) {
	ext := strings.ToLower(filepath.Ext(fn))
	if ext == ".las" {
		return WriteToLASFile(samples, fn)
	}

	var write func([]*Sample, io.Writer) error
	switch ext {
	case ".off":
		write = WriteOFF
	case ".pcd":
		write = func(samples []*Sample, out io.Writer) error {
			return ToPCD(samples, out, PCDAscii)
		}
	case ".asc", ".xyz", ".txt", ".pts", ".xyzn":
		write = WriteASCII
	default:
		return errors.Errorf("do not know how to write file %q", fn)
	}

	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return write(samples, f)
}

// NewFromLASFile returns the samples read from a LAS file. Only positions are read. If any
// lossiness of points could occur from reading it in, it's reported but is not an error.
func NewFromLASFile(fn string, logger golog.Logger) (*Cloud, error) {
	lf, err := lidario.NewLasFile(fn, "r")
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(lf.Close)

	cloud := NewWithPrealloc(lf.Header.NumberPoints)
	for i := 0; i < lf.Header.NumberPoints; i++ {
		p, err := lf.LasPoint(i)
		if err != nil {
			return nil, err
		}
		data := p.PointData()

		x, y, z := data.X, data.Y, data.Z
		if x < minPreciseFloat64 || x > maxPreciseFloat64 ||
			y < minPreciseFloat64 || y > maxPreciseFloat64 ||
			z < minPreciseFloat64 || z > maxPreciseFloat64 {
			logger.Warnw("potential floating point lossiness for LAS point",
				"point", data, "range", fmt.Sprintf("[%f,%f]", minPreciseFloat64, maxPreciseFloat64))
		}
		cloud.Add(NewSample(r3.Vector{X: x, Y: y, Z: z}), false)
	}
	return cloud, nil
}

// WriteToLASFile writes the positions of the selected samples out to a LAS file.
func WriteToLASFile(samples []*Sample, fn string) (err error) {
	lf, err := lidario.NewLasFile(fn, "w")
	if err != nil {
		return
	}
	defer func() {
		cerr := lf.Close()
		err = multierr.Combine(err, cerr)
	}()

	if err = lf.AddHeader(lidario.LasHeader{PointFormatID: 0}); err != nil {
		return
	}

	for _, s := range samples {
		if !s.IsSelected() {
			continue
		}
		pos := s.Position()
		pr0 := &lidario.PointRecord0{
			X: pos.X,
			Y: pos.Y,
			Z: pos.Z,
			BitField: lidario.PointBitField{
				Value: (1) | (1 << 3) | (0 << 6) | (0 << 7),
			},
			ClassBitField: lidario.ClassificationBitField{
				Value: 0,
			},
			PointSourceID: 1,
		}
		if err = lf.AddLasPoint(pr0); err != nil {
			return
		}
	}
	return
}

// ToPCD writes the selected samples out in the PCD format. Normals are written when at
// least one of the samples has a non zero normal.
func ToPCD(samples []*Sample, out io.Writer, outputType PCDType) error {
	selected := Selected(samples)
	withNormals := false
	for _, s := range selected {
		if s.Normal() != (r3.Vector{}) {
			withNormals = true
			break
		}
	}

	w := bufio.NewWriter(out)
	var err error
	_, err = fmt.Fprintf(w, "VERSION .7\n")
	if err != nil {
		return err
	}
	if withNormals {
		_, err = fmt.Fprintf(w, "FIELDS x y z normal_x normal_y normal_z\n"+
			"SIZE 4 4 4 4 4 4\n"+
			"TYPE F F F F F F\n"+
			"COUNT 1 1 1 1 1 1\n")
	} else {
		_, err = fmt.Fprintf(w, "FIELDS x y z\n"+
			"SIZE 4 4 4\n"+
			"TYPE F F F\n"+
			"COUNT 1 1 1\n")
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "WIDTH %d\n"+
		"HEIGHT %d\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n",
		len(selected),
		1,
		len(selected))
	if err != nil {
		return err
	}

	switch outputType {
	case PCDBinary:
		_, err = fmt.Fprintf(w, "DATA binary\n")
	case PCDAscii:
		_, err = fmt.Fprintf(w, "DATA ascii\n")
	case PCDCompressed:
		return errors.New("compressed PCD not yet implemented")
	default:
		return errors.Errorf("unsupported pcd data type %v", outputType)
	}
	if err != nil {
		return err
	}
	if err := writePCDData(selected, w, outputType, withNormals); err != nil {
		return err
	}
	return w.Flush()
}

func writePCDData(samples []*Sample, out io.Writer, pcdtype PCDType, withNormals bool) error {
	for _, s := range samples {
		values := []float64{s.Position().X, s.Position().Y, s.Position().Z}
		if withNormals {
			values = append(values, s.Normal().X, s.Normal().Y, s.Normal().Z)
		}
		var err error
		switch pcdtype {
		case PCDBinary:
			buf := make([]byte, 4*len(values))
			for i, v := range values {
				binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(float32(v)))
			}
			_, err = out.Write(buf)
		case PCDAscii:
			tokens := make([]string, len(values))
			for i, v := range values {
				tokens[i] = strconv.FormatFloat(v, 'f', -1, 64)
			}
			_, err = fmt.Fprintln(out, strings.Join(tokens, " "))
		case PCDCompressed:
			return errors.New("compressed PCD not yet implemented")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

type pcdFieldType int

const (
	pcdPointOnly   pcdFieldType = 3
	pcdPointNormal pcdFieldType = 6
)

type pcdHeader struct {
	fields pcdFieldType
	size   []uint64
	typ    []string
	count  []uint64
	width  uint64
	height uint64
	points uint64
	data   PCDType
}

const pcdCommentChar = "#"

var pcdHeaderFields = []string{"VERSION", "FIELDS", "SIZE", "TYPE", "COUNT", "WIDTH", "HEIGHT", "VIEWPOINT", "POINTS", "DATA"}

func parsePCDHeaderLine(line string, index int, header *pcdHeader) error {
	var err error
	name := pcdHeaderFields[index]
	field, value, _ := strings.Cut(line, " ")
	value = strings.TrimSpace(value)
	tokens := strings.Fields(value)
	if field != name {
		return errors.Errorf("line is supposed to start with %s but is %s", name, line)
	}

	switch name {
	case "VERSION":
		if value != ".7" && value != "0.7" {
			return errors.Errorf("unsupported pcd version %s", value)
		}
	case "FIELDS":
		switch strings.Join(tokens, " ") {
		case "x y z":
			header.fields = pcdPointOnly
		case "x y z normal_x normal_y normal_z":
			header.fields = pcdPointNormal
		default:
			return errors.Errorf("unsupported pcd fields %s", value)
		}
	case "SIZE":
		if len(tokens) != int(header.fields) {
			return errors.New("unexpected number of fields in SIZE line")
		}
		header.size = make([]uint64, len(tokens))
		for i, token := range tokens {
			header.size[i], err = strconv.ParseUint(token, 10, 64)
			if err != nil || (header.size[i] != 4 && header.size[i] != 8) {
				return errors.Errorf("invalid SIZE field %s", token)
			}
		}
	case "TYPE":
		if len(tokens) != int(header.fields) {
			return errors.New("unexpected number of fields in TYPE line")
		}
		header.typ = tokens
		for _, token := range tokens {
			if token != "F" {
				return errors.Errorf("unsupported TYPE field %s", token)
			}
		}
	case "COUNT":
		if len(tokens) != int(header.fields) {
			return errors.New("unexpected number of fields in COUNT line")
		}
		header.count = make([]uint64, len(tokens))
		for i, token := range tokens {
			header.count[i], err = strconv.ParseUint(token, 10, 64)
			if err != nil {
				return errors.Errorf("invalid COUNT field %s: %s", token, err)
			}
		}
	case "WIDTH":
		header.width, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Errorf("invalid WIDTH field %s: %s", value, err)
		}
	case "HEIGHT":
		header.height, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Errorf("invalid HEIGHT field %s: %s", value, err)
		}
	case "VIEWPOINT":
		if len(tokens) != 7 {
			return errors.Errorf("unexpected number of fields in VIEWPOINT line. Expected 7, got %d", len(tokens))
		}
		for _, token := range tokens {
			if _, err := strconv.ParseFloat(token, 64); err != nil {
				return errors.Errorf("invalid VIEWPOINT field %s: %s", token, err)
			}
		}
	case "POINTS":
		var points uint64
		points, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Errorf("invalid POINTS field %s: %s", value, err)
		}
		if points != header.width*header.height {
			return errors.Errorf("POINTS field %d does not match WIDTH*HEIGHT %d", points, header.width*header.height)
		}
		header.points = points
	case "DATA":
		switch value {
		case "ascii":
			header.data = PCDAscii
		case "binary":
			header.data = PCDBinary
		case "binary_compressed":
			header.data = PCDCompressed
		default:
			return errors.Errorf("unsupported pcd data type %s", value)
		}
	}

	return nil
}

// ReadPCD reads samples from a PCD stream with "x y z" or "x y z normal_x normal_y normal_z"
// float fields.
func ReadPCD(inRaw io.Reader) (*Cloud, error) {
	header := pcdHeader{}
	in := bufio.NewReader(inRaw)
	headerLineCount := 0
	for headerLineCount < len(pcdHeaderFields) {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, errors.Errorf("error reading header line %d: %s", headerLineCount, err)
		}
		line, _, _ = strings.Cut(line, pcdCommentChar)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := parsePCDHeaderLine(line, headerLineCount, &header); err != nil {
			return nil, err
		}
		headerLineCount++
	}
	switch header.data {
	case PCDAscii:
		return readPCDAscii(in, header)
	case PCDBinary:
		return readPCDBinary(in, header)
	case PCDCompressed:
		return nil, errors.New("compressed pcd not yet supported")
	default:
		return nil, errors.Errorf("unsupported pcd data type %v", header.data)
	}
}

func readPCDAscii(in *bufio.Reader, header pcdHeader) (*Cloud, error) {
	cloud := NewWithPrealloc(int(header.points))
	for i := 0; i < int(header.points); i++ {
		line, err := in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return nil, err
		}
		tokens := strings.Fields(line)
		if len(tokens) != int(header.fields) {
			return nil, errors.Errorf("unexpected number of fields in point %d", i)
		}
		values, err := parseFloats(tokens)
		if err != nil {
			return nil, errors.Wrapf(err, "point %d", i)
		}
		s, oriented := sampleFromValues(values)
		cloud.Add(s, oriented)
	}
	return cloud, nil
}

func readPCDBinary(in *bufio.Reader, header pcdHeader) (*Cloud, error) {
	cloud := NewWithPrealloc(int(header.points))
	for i := 0; i < int(header.points); i++ {
		values := make([]float64, int(header.fields))
		for j := range values {
			buf := make([]byte, header.size[j])
			if _, err := io.ReadFull(in, buf); err != nil {
				return nil, errors.Wrapf(err, "point %d", i)
			}
			switch header.size[j] {
			case 8:
				values[j] = math.Float64frombits(binary.LittleEndian.Uint64(buf))
			default:
				values[j] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf)))
			}
		}
		s, oriented := sampleFromValues(values)
		cloud.Add(s, oriented)
	}
	return cloud, nil
}
