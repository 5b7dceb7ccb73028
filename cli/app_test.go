package cli

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/fiducialpose/fiducial"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := NewApp(&out)
	app.ErrWriter = &out
	err := app.Run(append([]string{"fiducialpose"}, args...))
	return out.String(), err
}

func TestParseVector(t *testing.T) {
	v, err := parseVector("1, -2.5,3e-2")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldResemble, r3.Vector{X: 1, Y: -2.5, Z: 0.03})

	_, err = parseVector("1,2")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = parseVector("1,two,3")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "component 1")
}

func TestClassifyCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "candidates.json")
	test.That(t, os.WriteFile(path, []byte(`[
		{"x": 450, "y": 600, "area": 90},
		{"x": 100, "y": 700, "area": 395},
		{"x": 500, "y": 50, "area": 410},
		{"x": 100, "y": 50, "area": 400}
	]`), 0o600), test.ShouldBeNil)

	out, err := runApp(t, "classify", path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "ROLE")
	test.That(t, out, test.ShouldContainSubstring, "450.00")
	test.That(t, out, test.ShouldContainSubstring, "700.00")

	three := filepath.Join(dir, "three.json")
	test.That(t, os.WriteFile(three, []byte(`[{"x": 1, "y": 1, "area": 4}, {"x": 9, "y": 1, "area": 4}, {"x": 1, "y": 9, "area": 1}]`),
		0o600), test.ShouldBeNil)
	_, err = runApp(t, "classify", three)
	test.That(t, errors.Is(err, fiducial.ErrInputCardinality), test.ShouldBeTrue)

	_, err = runApp(t, "classify")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = runApp(t, "classify", filepath.Join(dir, "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestResolveCommand(t *testing.T) {
	// looking straight down from half a meter above the pattern
	rvec := strconv.FormatFloat(math.Pi, 'g', -1, 64) + ",0,0"
	out, err := runApp(t, "resolve", "--rvec", rvec, "--tvec", "0,0,0.5")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "0.500")
	test.That(t, out, test.ShouldContainSubstring, "PITCH")

	_, err = runApp(t, "resolve", "--rvec", "NaN,0,0", "--tvec", "0,0,0.5")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = runApp(t, "resolve", "--rvec", "0,0", "--tvec", "0,0,0.5")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = runApp(t, "resolve", "--rvec", "0,0,0")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestConfigCommand(t *testing.T) {
	out, err := runApp(t, "config")
	test.That(t, err, test.ShouldBeNil)
	var decoded map[string]interface{}
	test.That(t, json.Unmarshal([]byte(out), &decoded), test.ShouldBeNil)
	test.That(t, decoded, test.ShouldContainKey, "camera")
	test.That(t, decoded, test.ShouldContainKey, "effective_intrinsics")
	intrinsics := decoded["effective_intrinsics"].(map[string]interface{})
	test.That(t, intrinsics["width_px"], test.ShouldEqual, 612.)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	test.That(t, os.WriteFile(path, []byte(`{"camera": {"downscale": 2}}`), 0o600), test.ShouldBeNil)
	out, err = runApp(t, "--config", path, "config")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, json.Unmarshal([]byte(out), &decoded), test.ShouldBeNil)
	intrinsics = decoded["effective_intrinsics"].(map[string]interface{})
	test.That(t, intrinsics["width_px"], test.ShouldEqual, 1224.)

	_, err = runApp(t, "--config", filepath.Join(dir, "missing.json"), "config")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSolveCommand(t *testing.T) {
	_, err := runApp(t, "solve")
	test.That(t, err, test.ShouldNotBeNil)

	dir := t.TempDir()
	out, err := runApp(t, "solve", "--parallel", "2", "--plot-dir", filepath.Join(dir, "plots"),
		filepath.Join(dir, "missing_1.jpg"), filepath.Join(dir, "missing_2.jpg"))
	test.That(t, errors.Is(err, errNoPoses), test.ShouldBeTrue)
	test.That(t, out, test.ShouldContainSubstring, "missing_1.jpg")
	test.That(t, out, test.ShouldContainSubstring, "0/2 RESOLVED")

	// the plot directory is created even when nothing resolved
	_, statErr := os.Stat(filepath.Join(dir, "plots"))
	test.That(t, statErr, test.ShouldBeNil)
}
