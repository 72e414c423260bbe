// Package dataset loads recorded sensor logs for offline replay through
// the attitude filter. Two formats are supported: semicolon-delimited
// CSV logs with header-driven column discovery, and the five-file
// event-camera dataset directory layout (events/images/imu/groundtruth/
// calibration text files).
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/relabs-tech/attitude_computer/internal/imu"
	"github.com/relabs-tech/attitude_computer/internal/quaternion"
)

// Data holds one loaded recording. Gyro is always rad/s regardless of
// what the file carried; InRads records the original unit.
type Data struct {
	Time  []float64
	Gyro  []imu.Vector3
	Accel []imu.Vector3
	Mag   []imu.Vector3
	// HasMag reports whether the recording carries magnetometer columns,
	// i.e. whether MARG fusion is possible.
	HasMag bool

	// Ref holds ground-truth orientation quaternions when the recording
	// provides them. When RefTime is empty, Ref is aligned 1:1 with Time;
	// otherwise it is on its own timeline (event-camera groundtruth).
	Ref     []quaternion.Quaternion
	RefTime []float64

	// InRads reports whether the file stored its gyro readings in rad/s
	// (false means deg/s). Informational only: Gyro above is always rad/s,
	// the loaders convert before filling it.
	InRads bool
}

// Load reads a recording from path: a directory is treated as an
// event-camera dataset, a .csv file as a CSV log. MAT containers are not
// supported.
func Load(path string) (*Data, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	if info.IsDir() {
		return LoadETH(path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".mat":
		return nil, fmt.Errorf("dataset %s: MAT containers are not supported, convert to CSV", path)
	default:
		return nil, fmt.Errorf("dataset %s: unrecognized format", path)
	}
}

// LoadCSV reads a semicolon-delimited log. The first line is a header;
// sensor columns are located by substring ("acc", "gyr", "mag",
// "orient"), each naming the first of three (four for orientation)
// consecutive columns. Column 0 is the timestamp and data starts on the
// third line. Gyro values are already rad/s in this format.
func LoadCSV(path string) (*Data, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		return nil, fmt.Errorf("dataset %s: empty file", path)
	}
	header := strings.Split(strings.TrimSpace(scanner.Text()), ";")

	accIdx := findIndex(header, "acc")
	gyrIdx := findIndex(header, "gyr")
	magIdx := findIndex(header, "mag")
	qIdx := findIndex(header, "orient")
	if accIdx < 0 || gyrIdx < 0 {
		return nil, fmt.Errorf("dataset %s: header is missing accelerometer or gyroscope columns", path)
	}

	d := &Data{HasMag: magIdx >= 0, InRads: true}

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if lineNum == 2 || line == "" {
			// Second line carries units, not data.
			continue
		}

		vals, err := parseFloats(strings.Split(line, ";"))
		if err != nil {
			return nil, fmt.Errorf("dataset %s line %d: %w", path, lineNum, err)
		}

		d.Time = append(d.Time, vals[0])
		a, err := vec3At(vals, accIdx)
		if err != nil {
			return nil, fmt.Errorf("dataset %s line %d: accel: %w", path, lineNum, err)
		}
		g, err := vec3At(vals, gyrIdx)
		if err != nil {
			return nil, fmt.Errorf("dataset %s line %d: gyro: %w", path, lineNum, err)
		}
		d.Accel = append(d.Accel, a)
		d.Gyro = append(d.Gyro, g)

		if d.HasMag {
			m, err := vec3At(vals, magIdx)
			if err != nil {
				return nil, fmt.Errorf("dataset %s line %d: mag: %w", path, lineNum, err)
			}
			d.Mag = append(d.Mag, m)
		}
		if qIdx >= 0 {
			if qIdx+3 >= len(vals) {
				return nil, fmt.Errorf("dataset %s line %d: orientation columns out of range", path, lineNum)
			}
			d.Ref = append(d.Ref, quaternion.Quaternion{
				W: vals[qIdx], X: vals[qIdx+1], Y: vals[qIdx+2], Z: vals[qIdx+3],
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	if len(d.Time) == 0 {
		return nil, fmt.Errorf("dataset %s: no data rows", path)
	}
	return d, nil
}

// ethFiles is the exact set of text files an event-camera recording
// directory must contain.
var ethFiles = []string{"calib.txt", "events.txt", "groundtruth.txt", "images.txt", "imu.txt"}

// LoadETH reads an event-camera dataset directory. imu.txt holds one
// "timestamp ax ay az gx gy gz" measurement per line with the gyro in
// deg/s (converted here), groundtruth.txt one "timestamp px py pz qx qy
// qz qw" pose per line on its own timeline.
func LoadETH(path string) (*Data, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	var txt []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") {
			txt = append(txt, e.Name())
		}
	}
	sort.Strings(txt)
	if missing := diffFiles(txt); len(missing) > 0 {
		return nil, fmt.Errorf("dataset %s: incomplete data, unexpected or missing files: %s",
			path, strings.Join(missing, ", "))
	}

	d := &Data{InRads: false}

	err = eachLine(filepath.Join(path, "imu.txt"), func(lineNum int, fields []string) error {
		vals, err := parseFloats(fields)
		if err != nil {
			return err
		}
		if len(vals) < 7 {
			return fmt.Errorf("expected 7 columns, got %d", len(vals))
		}
		d.Time = append(d.Time, vals[0])
		d.Accel = append(d.Accel, imu.Vector3{X: vals[1], Y: vals[2], Z: vals[3]})
		d.Gyro = append(d.Gyro, imu.Vector3{
			X: vals[4] * math.Pi / 180.0,
			Y: vals[5] * math.Pi / 180.0,
			Z: vals[6] * math.Pi / 180.0,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dataset %s: imu.txt: %w", path, err)
	}

	err = eachLine(filepath.Join(path, "groundtruth.txt"), func(lineNum int, fields []string) error {
		vals, err := parseFloats(fields)
		if err != nil {
			return err
		}
		if len(vals) < 8 {
			return fmt.Errorf("expected 8 columns, got %d", len(vals))
		}
		d.RefTime = append(d.RefTime, vals[0])
		// File order is x,y,z,w.
		d.Ref = append(d.Ref, quaternion.Quaternion{
			W: vals[7], X: vals[4], Y: vals[5], Z: vals[6],
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dataset %s: groundtruth.txt: %w", path, err)
	}

	if len(d.Time) == 0 {
		return nil, fmt.Errorf("dataset %s: imu.txt has no measurements", path)
	}
	return d, nil
}

// Len returns the number of inertial samples.
func (d *Data) Len() int {
	return len(d.Time)
}

// RefAt returns the ground-truth quaternion nearest to time t, and
// whether ground truth exists at all. With an empty RefTime the
// references share the sample timeline and i indexes directly.
func (d *Data) RefAt(t float64, i int) (quaternion.Quaternion, bool) {
	if len(d.Ref) == 0 {
		return quaternion.Quaternion{}, false
	}
	if len(d.RefTime) == 0 {
		if i < 0 || i >= len(d.Ref) {
			return quaternion.Quaternion{}, false
		}
		return d.Ref[i], true
	}
	j := sort.SearchFloat64s(d.RefTime, t)
	if j == len(d.RefTime) {
		j--
	} else if j > 0 && t-d.RefTime[j-1] < d.RefTime[j]-t {
		j--
	}
	return d.Ref[j], true
}

// Samples adapts the recording to the imu.Source the filter pipeline
// consumes. The returned source yields io.EOF after the last sample.
func (d *Data) Samples() imu.Source {
	return &replaySource{data: d}
}

type replaySource struct {
	data *Data
	next int
}

func (r *replaySource) Next() (imu.Sample, error) {
	if r.next >= r.data.Len() {
		return imu.Sample{}, io.EOF
	}
	i := r.next
	r.next++
	s := imu.Sample{
		Time:   r.data.Time[i],
		Gyro:   r.data.Gyro[i],
		Accel:  r.data.Accel[i],
		HasMag: r.data.HasMag,
	}
	if r.data.HasMag {
		s.Mag = r.data.Mag[i]
	}
	return s, nil
}

// findIndex returns the index of the first header cell containing s,
// case-insensitively, or -1.
func findIndex(header []string, s string) int {
	for i, h := range header {
		if strings.Contains(strings.ToLower(h), s) {
			return i
		}
	}
	return -1
}

// diffFiles returns the symmetric difference between the found .txt
// files and the required set: anything missing or unexpected.
func diffFiles(found []string) []string {
	required := make(map[string]bool, len(ethFiles))
	for _, f := range ethFiles {
		required[f] = true
	}
	var diff []string
	for _, f := range found {
		if !required[f] {
			diff = append(diff, f)
		}
		delete(required, f)
	}
	for f := range required {
		diff = append(diff, f)
	}
	sort.Strings(diff)
	return diff
}

func eachLine(path string, fn func(lineNum int, fields []string) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := fn(lineNum, strings.Fields(line)); err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	return scanner.Err()
}

func parseFloats(fields []string) ([]float64, error) {
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return vals, nil
}

func vec3At(vals []float64, idx int) (imu.Vector3, error) {
	if idx < 0 || idx+2 >= len(vals) {
		return imu.Vector3{}, fmt.Errorf("columns %d-%d out of range", idx+1, idx+3)
	}
	return imu.Vector3{X: vals[idx], Y: vals[idx+1], Z: vals[idx+2]}, nil
}
