package cli

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	gallery := filepath.Join(t.TempDir(), "embeddings.json")
	t.Setenv("ENV", "test")
	t.Setenv("DETECTOR", "mock")
	t.Setenv("EMBEDDER", "mock")
	t.Setenv("MATCH_STRATEGY", "embedding")
	t.Setenv("MATCH_THRESHOLD", "0.7")
	t.Setenv("GALLERY_BACKEND", "file")
	t.Setenv("GALLERY_PATH", gallery)
	return gallery
}

func writeImage(t *testing.T, dir, name string, size int, shade uint8) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, color.RGBA{uint8(x*3) ^ shade, uint8(y) + shade, shade, 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	require.NoError(t, png.Encode(f, img))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestEnrolAndRecognize(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	alice := writeImage(t, dir, "alice.png", 96, 30)

	out, _, err := run(t, "enrol", "--image", alice, "--id", " alice ")
	require.NoError(t, err)
	assert.Equal(t, "enrolled alice\n", out)

	out, _, err = run(t, "recognize", "--image", alice)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"PERSON", "SCORE", "MATCHED"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"alice", "1.0000", "true"}, strings.Fields(lines[1]))
}

func TestRecognize_EmptyGallery(t *testing.T) {
	setupEnv(t)
	probe := writeImage(t, t.TempDir(), "probe.png", 64, 5)

	out, _, err := run(t, "recognize", "--image", probe)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{domain.UnknownPerson, "-1.0000", "false"}, strings.Fields(lines[1]))
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name         string
		sizeB        int
		args         []string
		wantMatch    string
		wantStrategy string
	}{
		{
			name:         "embedding strategy",
			sizeB:        80,
			wantMatch:    "true",
			wantStrategy: "embedding",
		},
		{
			name:         "landmark strategy from flag",
			sizeB:        80,
			args:         []string{"--strategy", "landmark"},
			wantMatch:    "true",
			wantStrategy: "landmark",
		},
		{
			name:         "threshold from flag",
			sizeB:        160,
			args:         []string{"--strategy", "landmark", "--threshold", "1"},
			wantMatch:    "false",
			wantStrategy: "landmark",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupEnv(t)
			dir := t.TempDir()
			a := writeImage(t, dir, "a.png", 80, 60)
			b := writeImage(t, dir, "b.png", tt.sizeB, 60)

			args := append([]string{"compare", "--a", a, "--b", b}, tt.args...)
			out, _, err := run(t, args...)
			require.NoError(t, err)

			lines := strings.Split(strings.TrimSpace(out), "\n")
			require.Len(t, lines, 2)
			cols := strings.Fields(lines[1])
			require.Len(t, cols, 3)
			assert.Equal(t, tt.wantMatch, cols[0])
			assert.Equal(t, tt.wantStrategy, cols[2])
		})
	}
}

func TestEnrolDir(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	writeImage(t, dir, "carol.png", 96, 90)
	writeImage(t, dir, "bob.png", 96, 10)
	writeImage(t, dir, "tiny.png", 8, 0)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0o755))

	out, stderr, err := run(t, "enrol", "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 images failed")
	assert.Contains(t, out, "enrolled 2 of 3 images")
	assert.Contains(t, stderr, "tiny.png")
	assert.Contains(t, stderr, domain.ErrNoFaceDetected.Code)

	out, _, err = run(t, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"bob", "1"}, strings.Fields(lines[1]), "files are enrolled in name order")
	assert.Equal(t, []string{"carol", "1"}, strings.Fields(lines[2]))
}

func TestEnrolDir_Empty(t *testing.T) {
	setupEnv(t)

	_, _, err := run(t, "enrol", "--dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no images found")
}

func TestList_Empty(t *testing.T) {
	setupEnv(t)

	out, _, err := run(t, "list")
	require.NoError(t, err)
	assert.Equal(t, "No identities enrolled.\n", out)
}

func TestGalleryFlagOverridesEnvironment(t *testing.T) {
	envGallery := setupEnv(t)
	flagGallery := filepath.Join(t.TempDir(), "other.json")
	img := writeImage(t, t.TempDir(), "dave.png", 64, 120)

	_, _, err := run(t, "--gallery", flagGallery, "enrol", "--image", img, "--id", "dave")
	require.NoError(t, err)

	_, err = os.Stat(flagGallery)
	assert.NoError(t, err)
	_, err = os.Stat(envGallery)
	assert.True(t, os.IsNotExist(err))
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantErrIs   error
		wantContain string
	}{
		{
			name:        "enrol without flags",
			args:        []string{"enrol"},
			wantContain: "either --image with --id or --dir is required",
		},
		{
			name:        "enrol image without id",
			args:        []string{"enrol", "--image", "a.png"},
			wantContain: "id",
		},
		{
			name:        "enrol image and dir",
			args:        []string{"enrol", "--image", "a.png", "--id", "a", "--dir", "."},
			wantContain: "dir",
		},
		{
			name:      "reserved person id",
			args:      []string{"enrol", "--image", "a.png", "--id", "_version"},
			wantErrIs: domain.ErrInvalidInput,
		},
		{
			name:      "missing image",
			args:      []string{"recognize", "--image", "/does/not/exist.png"},
			wantErrIs: domain.ErrImageAcquisitionFailed,
		},
		{
			name:        "compare missing b",
			args:        []string{"compare", "--a", "a.png"},
			wantContain: "b",
		},
		{
			name:        "invalid strategy flag",
			args:        []string{"--strategy", "euclidean", "list"},
			wantContain: "MATCH_STRATEGY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupEnv(t)

			_, _, err := run(t, tt.args...)
			require.Error(t, err)
			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
			}
			if tt.wantContain != "" {
				assert.Contains(t, err.Error(), tt.wantContain)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	assert.Equal(t,
		"error [NO_FACE_DETECTED]: second image: No face detected in the image",
		describe(fmt.Errorf("second image: %w", domain.ErrNoFaceDetected)),
	)
	assert.Equal(t, "error: boom", describe(fmt.Errorf("boom")))
}
