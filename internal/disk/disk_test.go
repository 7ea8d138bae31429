package disk_test

import (
	"errors"
	"testing"

	"github.com/druxorey/project-lucario/internal/disk"
)

func TestReadWriteSectorRoundTrip(t *testing.T) {
	d := disk.New()

	if err := d.WriteSector(1, 2, 3, 1234567); err != nil {
		t.Fatalf("WriteSector: %s", err)
	}

	got, err := d.ReadSector(1, 2, 3)
	if err != nil {
		t.Fatalf("ReadSector: %s", err)
	}

	if got != 1234567 {
		t.Errorf("ReadSector(1,2,3) = %d, want 1234567", got)
	}
}

func TestReadSectorOutOfBounds(t *testing.T) {
	d := disk.New()

	cases := [][3]int{
		{-1, 0, 0},
		{disk.Tracks, 0, 0},
		{0, disk.Cylinders, 0},
		{0, 0, disk.Sectors},
	}

	for _, c := range cases {
		if _, err := d.ReadSector(c[0], c[1], c[2]); !errors.Is(err, disk.ErrOutOfBounds) {
			t.Errorf("ReadSector%v err = %v, want ErrOutOfBounds", c, err)
		}
	}
}

func TestWriteSectorOutOfBoundsLeavesDiskUnmodified(t *testing.T) {
	d := disk.New()

	if err := d.WriteSector(-1, 0, 0, 999); !errors.Is(err, disk.ErrOutOfBounds) {
		t.Fatalf("WriteSector err = %v, want ErrOutOfBounds", err)
	}

	got, err := d.ReadSector(0, 0, 0)
	if err != nil {
		t.Fatalf("ReadSector: %s", err)
	}

	if got != 0 {
		t.Errorf("ReadSector(0,0,0) = %d, want 0 (untouched)", got)
	}
}
