package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/nfrecon/internal/encoding"
)

// "Nota Fiscal de Serviço nº 12" in Windows-1252.
var latin1Subject = []byte{
	'N', 'o', 't', 'a', ' ', 'F', 'i', 's', 'c', 'a', 'l', ' ', 'd', 'e', ' ',
	'S', 'e', 'r', 'v', 'i', 0xE7, 'o', ' ', 'n', 0xBA, ' ', '1', '2',
}

func readAll(t *testing.T, r io.Reader, err error) string {
	t.Helper()

	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(got)
}

func TestNewUTF8Reader(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{
			name:  "utf8 passthrough",
			input: []byte("Emissão de NFS-e: Gráfica Aurora"),
			want:  "Emissão de NFS-e: Gráfica Aurora",
		},
		{
			name:  "utf8 bom stripped",
			input: append([]byte{0xEF, 0xBB, 0xBF}, "Prestação"...),
			want:  "Prestação",
		},
		{
			name:  "utf16le bom",
			input: []byte{0xFF, 0xFE, 'N', 0x00, 'F', 0x00},
			want:  "NF",
		},
		{
			name:  "latin1 fallback",
			input: latin1Subject,
			want:  "Nota Fiscal de Serviço nº 12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := encoding.NewUTF8Reader(bytes.NewReader(tt.input))
			assert.Equal(t, tt.want, readAll(t, r, err))
		})
	}
}

func TestCharsetReader(t *testing.T) {
	t.Run("declared iso-8859-1", func(t *testing.T) {
		r, err := encoding.CharsetReader("ISO-8859-1", bytes.NewReader(latin1Subject))
		assert.Equal(t, "Nota Fiscal de Serviço nº 12", readAll(t, r, err))
	})

	t.Run("utf8 passthrough", func(t *testing.T) {
		r, err := encoding.CharsetReader("UTF-8", bytes.NewReader([]byte("Serviço")))
		assert.Equal(t, "Serviço", readAll(t, r, err))
	})

	t.Run("unknown label is sniffed", func(t *testing.T) {
		r, err := encoding.CharsetReader("x-made-up", bytes.NewReader(latin1Subject))
		assert.Equal(t, "Nota Fiscal de Serviço nº 12", readAll(t, r, err))
	})
}
