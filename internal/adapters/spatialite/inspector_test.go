package spatialite

import "testing"

func TestIsEmptyGeoPackageBlob(t *testing.T) {
	tests := []struct {
		name string
		blob []byte
		want bool
	}{
		{"empty flag set", []byte{'G', 'P', 0, 0x11, 0, 0, 0, 0}, true},
		{"no empty flag", []byte{'G', 'P', 0, 0x03, 0, 0, 0, 0}, false},
		{"spatialite blob", []byte{0x00, 0x01, 0xE6, 0x10}, false},
		{"too short", []byte{'G', 'P'}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEmptyGeoPackageBlob(tt.blob); got != tt.want {
				t.Errorf("IsEmptyGeoPackageBlob(%v) = %v, want %v", tt.blob, got, tt.want)
			}
		})
	}
}
