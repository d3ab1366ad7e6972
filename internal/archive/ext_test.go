package archive

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExt_ArchivePath(t *testing.T) {
	tests := []struct {
		name string
		ext  Ext
		dir  string
		want string
	}{
		{
			name: "gzip",
			ext:  ExtGzip,
			dir:  filepath.Join("data", "foo"),
			want: filepath.Join("data", "foo") + ".tar.gz",
		},
		{
			name: "zstd",
			ext:  ExtZstd,
			dir:  "foo",
			want: "foo.tar.zst",
		},
		{
			name: "trailing separator cleaned",
			ext:  ExtGzip,
			dir:  "foo" + string(filepath.Separator),
			want: "foo.tar.gz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ext.ArchivePath(tt.dir))
		})
	}
}

func TestExt_SourcePath(t *testing.T) {
	tests := []struct {
		name    string
		ext     Ext
		path    string
		want    string
		wantErr bool
	}{
		{
			name: "gzip roundtrip",
			ext:  ExtGzip,
			path: filepath.Join("p", "foo.tar.gz"),
			want: filepath.Join("p", "foo"),
		},
		{
			name:    "wrong extension",
			ext:     ExtGzip,
			path:    "foo.tar.zst",
			wantErr: true,
		},
		{
			name:    "bare extension has no stem",
			ext:     ExtGzip,
			path:    ".tar.gz",
			wantErr: true,
		},
		{
			name:    "no extension",
			ext:     ExtGzip,
			path:    "foo",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.ext.SourcePath(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtOf(t *testing.T) {
	ext, ok := ExtOf("snapshot.tar.gz")
	require.True(t, ok)
	assert.Equal(t, ExtGzip, ext)

	ext, ok = ExtOf("snapshot.tar.zst")
	require.True(t, ok)
	assert.Equal(t, ExtZstd, ext)

	_, ok = ExtOf("snapshot.zip")
	assert.False(t, ok)
}
