package dataset

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/attitude_computer/internal/quaternion"
)

const sampleCSV = `time;acc_x;acc_y;acc_z;gyr_x;gyr_y;gyr_z;mag_x;mag_y;mag_z;orientation_w;orientation_x;orientation_y;orientation_z
0;1;1;1;1;1;1;1;1;1;1;0;0;0
0.00;0.1;0.2;9.8;0.01;0.02;0.03;21;4;-44;1;0;0;0
0.01;0.1;0.2;9.7;0.01;0.02;0.03;21;4;-44;0.999;0.01;0;0
0.02;0.1;0.2;9.6;0.01;0.02;0.03;21;4;-44;0.998;0.02;0;0
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recording.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	d, err := Load(writeCSV(t, sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 3, d.Len())
	assert.True(t, d.HasMag)
	assert.True(t, d.InRads)

	assert.InDelta(t, 0.01, d.Time[1], 1e-12)
	assert.InDelta(t, 9.8, d.Accel[0].Z, 1e-12)
	assert.InDelta(t, 0.02, d.Gyro[2].Y, 1e-12)
	assert.InDelta(t, -44, d.Mag[1].Z, 1e-12)

	require.Len(t, d.Ref, 3)
	assert.Equal(t, quaternion.Identity(), d.Ref[0])
	assert.InDelta(t, 0.02, d.Ref[2].X, 1e-12)
	assert.Empty(t, d.RefTime)
}

func TestLoadCSVWithoutOptionalColumns(t *testing.T) {
	csv := `time;acc_x;acc_y;acc_z;gyr_x;gyr_y;gyr_z
0;1;1;1;1;1;1
0.0;0;0;9.8;0.1;0.2;0.3
`
	d, err := Load(writeCSV(t, csv))
	require.NoError(t, err)
	assert.False(t, d.HasMag)
	assert.Empty(t, d.Ref)
	assert.Equal(t, 1, d.Len())
}

func TestLoadCSVMissingGyro(t *testing.T) {
	csv := `time;acc_x;acc_y;acc_z
0;1;1;1
0.0;0;0;9.8
`
	_, err := Load(writeCSV(t, csv))
	assert.ErrorContains(t, err, "missing accelerometer or gyroscope")
}

func TestLoadCSVBadValue(t *testing.T) {
	csv := `time;acc_x;acc_y;acc_z;gyr_x;gyr_y;gyr_z
0;1;1;1;1;1;1
0.0;zero;0;9.8;0.1;0.2;0.3
`
	_, err := Load(writeCSV(t, csv))
	assert.ErrorContains(t, err, "line 3")
}

func writeETH(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func ethFixture() map[string]string {
	return map[string]string{
		"events.txt": "",
		"images.txt": "",
		"calib.txt":  "199.0 199.0 132.0 110.0 0.0 0.0 0.0 0.0 0.0",
		"imu.txt": "0.0 0.1 0.2 9.8 57.29577951308232 0.0 0.0\n" +
			"0.01 0.1 0.2 9.8 0.0 -57.29577951308232 0.0\n",
		"groundtruth.txt": "0.0 0.0 0.0 0.0 0.0 0.0 0.0 1.0\n" +
			"1.0 0.0 0.0 0.0 0.1 0.2 0.3 0.9\n",
	}
}

func TestLoadETH(t *testing.T) {
	d, err := Load(writeETH(t, ethFixture()))
	require.NoError(t, err)

	assert.Equal(t, 2, d.Len())
	assert.False(t, d.HasMag)
	assert.False(t, d.InRads)

	// Gyro stored in deg/s, converted to rad/s on load.
	assert.InDelta(t, 1.0, d.Gyro[0].X, 1e-9)
	assert.InDelta(t, -1.0, d.Gyro[1].Y, 1e-9)

	// Ground truth files store the quaternion as x,y,z,w.
	require.Len(t, d.Ref, 2)
	assert.Equal(t, quaternion.Identity(), d.Ref[0])
	assert.InDelta(t, 0.9, d.Ref[1].W, 1e-12)
	assert.InDelta(t, 0.1, d.Ref[1].X, 1e-12)
	assert.Equal(t, []float64{0.0, 1.0}, d.RefTime)
}

func TestLoadETHMissingFile(t *testing.T) {
	files := ethFixture()
	delete(files, "groundtruth.txt")
	_, err := Load(writeETH(t, files))
	assert.ErrorContains(t, err, "groundtruth.txt")
}

func TestLoadETHUnexpectedFile(t *testing.T) {
	files := ethFixture()
	files["notes.txt"] = "scribbles"
	_, err := Load(writeETH(t, files))
	assert.ErrorContains(t, err, "notes.txt")
}

func TestLoadMATUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repoIMU.mat")
	require.NoError(t, os.WriteFile(path, []byte{0}, 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "not supported")
}

func TestRefAt(t *testing.T) {
	d := &Data{
		Ref: []quaternion.Quaternion{
			{W: 1}, {W: 0.9, X: 0.1},
		},
		RefTime: []float64{0.0, 1.0},
	}

	q, ok := d.RefAt(0.2, 0)
	require.True(t, ok)
	assert.Equal(t, quaternion.Identity(), q)

	q, ok = d.RefAt(0.8, 0)
	require.True(t, ok)
	assert.InDelta(t, 0.9, q.W, 1e-12)

	// Past the end clamps to the last reference.
	q, ok = d.RefAt(5.0, 0)
	require.True(t, ok)
	assert.InDelta(t, 0.9, q.W, 1e-12)

	// Shared timeline indexes directly.
	d.RefTime = nil
	q, ok = d.RefAt(123.0, 1)
	require.True(t, ok)
	assert.InDelta(t, 0.9, q.W, 1e-12)

	_, ok = (&Data{}).RefAt(0, 0)
	assert.False(t, ok)
}

func TestSamples(t *testing.T) {
	d, err := Load(writeCSV(t, sampleCSV))
	require.NoError(t, err)

	src := d.Samples()
	for i := 0; i < d.Len(); i++ {
		s, err := src.Next()
		require.NoError(t, err)
		assert.Equal(t, d.Time[i], s.Time)
		assert.Equal(t, d.Accel[i], s.Accel)
		assert.Equal(t, d.Gyro[i], s.Gyro)
		assert.True(t, s.HasMag)
		assert.Equal(t, d.Mag[i], s.Mag)
	}
	_, err = src.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLoadCSVGyroStaysUntouched(t *testing.T) {
	// CSV logs already carry rad/s; no unit conversion may happen.
	csv := `time;acc_x;acc_y;acc_z;gyr_x;gyr_y;gyr_z
0;1;1;1;1;1;1
0.0;0;0;9.8;` + strconv.FormatFloat(math.Pi, 'f', -1, 64) + `;0;0
`
	d, err := Load(writeCSV(t, csv))
	require.NoError(t, err)
	assert.InDelta(t, math.Pi, d.Gyro[0].X, 1e-12)
}
