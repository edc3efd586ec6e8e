package resp_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/moonlightdb/moonlight/internal/resp"
)

func TestReadInt(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr error
	}{
		{
			name:    "Valid positive",
			input:   ":1000\r\n",
			want:    1000,
			wantErr: nil,
		},
		{
			name:    "Valid positive with +",
			input:   ":+1230\r\n",
			want:    1230,
			wantErr: nil,
		},
		{
			name:    "Valid negative",
			input:   ":-15\r\n",
			want:    -15,
			wantErr: nil,
		},
		{
			name:    "Valid zero",
			input:   ":0\r\n",
			want:    0,
			wantErr: nil,
		},
		{
			name:    "Invalid ending",
			input:   ":1000\n",
			want:    0,
			wantErr: resp.ErrInvalidEnding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := resp.NewDecoder(strings.NewReader(tt.input))

			val, err := d.Read()

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Read() expected error %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Errorf("Read() unexpected error %v", err)
			}

			if val.Type != resp.TypeInteger {
				t.Errorf("Read() type = %v, want %v", val.Type, resp.TypeInteger)
			}

			if val.Integer != tt.want {
				t.Errorf("Read() integer = %v, want %v", val.Integer, tt.want)
			}
		})
	}
}

func TestReadBulkString(t *testing.T) {
	d := resp.NewDecoder(strings.NewReader("$5\r\nhello\r\n"))
	val, err := d.Read()
	if err != nil {
		t.Fatalf("Read() unexpected error: %v", err)
	}
	if val.Type != resp.TypeBulkString || string(val.String) != "hello" {
		t.Errorf("Read() = %+v, want bulk string 'hello'", val)
	}
}

func TestReadNilBulkString(t *testing.T) {
	d := resp.NewDecoder(strings.NewReader("$-1\r\n"))
	val, err := d.Read()
	if err != nil {
		t.Fatalf("Read() unexpected error: %v", err)
	}
	if !val.IsNull {
		t.Errorf("Read() = %+v, want null bulk string", val)
	}
}

func TestReadArrayCommand(t *testing.T) {
	d := resp.NewDecoder(strings.NewReader("*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n"))
	val, err := d.Read()
	if err != nil {
		t.Fatalf("Read() unexpected error: %v", err)
	}
	if val.Type != resp.TypeArray || len(val.Array) != 2 {
		t.Fatalf("Read() = %+v, want array of 2", val)
	}
	if string(val.Array[0].String) != "GET" || string(val.Array[1].String) != "foo" {
		t.Errorf("Read() array contents = %+v", val.Array)
	}
}

func TestReadInlineCommand(t *testing.T) {
	d := resp.NewDecoder(strings.NewReader("PING\r\n"))
	val, err := d.Read()
	if err != nil {
		t.Fatalf("Read() unexpected error: %v", err)
	}
	if val.Type != resp.TypeArray || len(val.Array) != 1 || string(val.Array[0].String) != "PING" {
		t.Errorf("Read() = %+v, want inline PING array", val)
	}
}

func TestReadInlineCommandSkipsBlankLines(t *testing.T) {
	d := resp.NewDecoder(strings.NewReader("\r\nSET a b\r\n"))
	val, err := d.Read()
	if err != nil {
		t.Fatalf("Read() unexpected error: %v", err)
	}
	if len(val.Array) != 3 {
		t.Fatalf("Read() = %+v, want 3-field inline command", val)
	}
}
