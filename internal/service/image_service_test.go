package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/orcamais/orcamais-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeImage renders a solid width x height image in the given format
func encodeImage(t *testing.T, width, height int, format string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 120, B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
	}
	require.NoError(t, err)
	return buf.Bytes()
}

func TestValidateImage(t *testing.T) {
	svc := NewImageService(nil)

	tests := []struct {
		name     string
		data     []byte
		filename string
		wantErr  error
	}{
		{name: "jpeg", data: encodeImage(t, 100, 100, "jpeg"), filename: "praia.jpg"},
		{name: "jpeg long extension", data: encodeImage(t, 100, 100, "jpeg"), filename: "praia.JPEG"},
		{name: "png", data: encodeImage(t, 120, 80, "png"), filename: "carro.png"},
		{name: "over 5MB", data: make([]byte, MaxImageSize+1), filename: "big.jpg", wantErr: ErrImageTooLarge},
		{name: "unsupported extension", data: encodeImage(t, 100, 100, "jpeg"), filename: "praia.gif", wantErr: ErrInvalidFormat},
		{name: "gif renamed to jpg", data: encodeImage(t, 100, 100, "gif"), filename: "praia.jpg", wantErr: ErrInvalidFormat},
		{name: "png named jpg", data: encodeImage(t, 100, 100, "png"), filename: "praia.jpg"},
		{name: "too small", data: encodeImage(t, 30, 30, "jpeg"), filename: "icon.jpg", wantErr: ErrImageTooSmall},
		{name: "too narrow", data: encodeImage(t, 49, 400, "png"), filename: "strip.png", wantErr: ErrImageTooSmall},
		{name: "not an image", data: []byte("not an image"), filename: "praia.jpg", wantErr: ErrInvalidImageData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ValidateImage(tt.data, tt.filename)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExtractBasePath(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"user-1/dreams/d1/abc123_thumb.jpg", "user-1/dreams/d1/abc123"},
		{"user-1/dreams/d1/abc123_display.jpg", "user-1/dreams/d1/abc123"},
		{"user-1/dreams/d1/abc123_original.jpg", "user-1/dreams/d1/abc123"},
		{"user-1/dreams/d1/abc123.jpg", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractBasePath(tt.path))
		})
	}
}

func TestProcessDreamImage(t *testing.T) {
	repo := testutil.NewMockImageRepository()
	svc := NewImageService(repo)
	svc.newID = func() string { return "img" }

	meta, err := svc.ProcessDreamImage(context.Background(), "user-1", "d1", encodeImage(t, 1200, 600, "png"), "viagem.png")
	require.NoError(t, err)

	assert.Equal(t, "img", meta.ID)
	assert.Equal(t, "user-1/dreams/d1/img_thumb.jpg", meta.ThumbnailPath)
	assert.Equal(t, "user-1/dreams/d1/img_display.jpg", meta.DisplayPath)
	assert.Equal(t, "user-1/dreams/d1/img_original.jpg", meta.OriginalPath)
	require.Len(t, repo.Objects, 3)

	widths := map[string]int{
		meta.ThumbnailPath: ThumbnailWidth,
		meta.DisplayPath:   DisplayWidth,
		meta.OriginalPath:  1200,
	}
	for path, width := range widths {
		img, err := jpeg.Decode(bytes.NewReader(repo.Objects[path]))
		require.NoError(t, err, path)
		assert.Equal(t, width, img.Bounds().Dx(), path)
	}
}

func TestProcessDreamImage_UploadFailureCleansUp(t *testing.T) {
	repo := testutil.NewMockImageRepository()
	repo.FailUploadSuffix = "_original.jpg"
	svc := NewImageService(repo)

	_, err := svc.ProcessDreamImage(context.Background(), "user-1", "d1", encodeImage(t, 100, 100, "jpeg"), "casa.jpg")
	require.Error(t, err)
	assert.Empty(t, repo.Objects)
	assert.Len(t, repo.Deleted, 2)
}

func TestProcessDreamImage_InvalidImage(t *testing.T) {
	repo := testutil.NewMockImageRepository()
	svc := NewImageService(repo)

	_, err := svc.ProcessDreamImage(context.Background(), "user-1", "d1", []byte("nope"), "x.jpg")
	assert.ErrorIs(t, err, ErrInvalidImageData)
	assert.Empty(t, repo.Objects)
}

func TestImageService_Disabled(t *testing.T) {
	svc := NewImageService(nil)
	ctx := context.Background()

	assert.False(t, svc.IsEnabled())
	_, err := svc.ProcessDreamImage(ctx, "user-1", "d1", nil, "x.jpg")
	assert.ErrorIs(t, err, ErrImageStorageNotConfigured)
	assert.ErrorIs(t, svc.DeleteAllVariants(ctx, "user-1/dreams/d1/img_display.jpg"), ErrImageStorageNotConfigured)

	url, err := svc.ResolveURL(ctx, "https://cdn.example.com/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.jpg", url)
}

func TestDeleteAllVariants(t *testing.T) {
	repo := testutil.NewMockImageRepository()
	svc := NewImageService(repo)

	require.NoError(t, svc.DeleteAllVariants(context.Background(), "user-1/dreams/d1/img_display.jpg"))
	assert.ElementsMatch(t, []string{
		"user-1/dreams/d1/img_thumb.jpg",
		"user-1/dreams/d1/img_display.jpg",
		"user-1/dreams/d1/img_original.jpg",
	}, repo.Deleted)

	// Paths without a variant suffix are left alone
	repo.Deleted = nil
	require.NoError(t, svc.DeleteAllVariants(context.Background(), "legacy.png"))
	assert.Empty(t, repo.Deleted)
}

func TestResolveURL(t *testing.T) {
	svc := NewImageService(testutil.NewMockImageRepository())

	url, err := svc.ResolveURL(context.Background(), "user-1/dreams/d1/img_display.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://storage.test/user-1/dreams/d1/img_display.jpg?expires=1h0m0s", url)

	url, err = svc.ResolveURL(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, url)
}
