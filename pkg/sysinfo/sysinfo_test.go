package sysinfo

import "testing"

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    uint64
		wantErr bool
	}{
		{name: "bytes", in: "1024", want: 1024},
		{name: "kibibytes", in: "4K", want: 4 << 10},
		{name: "mebibytes lowercase", in: "16m", want: 16 << 20},
		{name: "gibibytes", in: "2G", want: 2 << 30},
		{name: "tebibytes", in: "1T", want: 1 << 40},
		{name: "fractional gigabytes", in: "1.5G", want: uint64(1.5 * (1 << 30))},
		{name: "empty", in: "", wantErr: true},
		{name: "garbage", in: "not-a-size", wantErr: true},
		{name: "negative", in: "-4M", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error, got none", tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}
}
