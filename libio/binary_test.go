package libio_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/lhkbob/envbake/libio"
)

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestBinaryRoundTrip(t *testing.T) {
	buf := new(bytes.Buffer)
	bw := &libio.BinaryWriter{Dst: buf, Order: binary.BigEndian}

	floats := []float32{1.5, -2.25, 0, 3.75}
	if !bw.WriteInt32(-7) || !bw.WriteInt32(42) || !bw.WriteRef(floats) {
		t.Fatalf("writes failed: %v", bw.Err)
	}

	br := &libio.BinaryReader{Src: buf, Order: binary.BigEndian}

	var a, b int
	read := make([]float32, len(floats))
	if !br.ReadInt32(&a) || !br.ReadInt32(&b) || !br.ReadRef(read) {
		t.Fatalf("reads failed: %v", br.Err)
	}

	if a != -7 || b != 42 {
		t.Errorf("ints should be -7 and 42 but are %d and %d", a, b)
	}
	for i := range floats {
		if read[i] != floats[i] {
			t.Errorf("float %d should be %v but is %v", i, floats[i], read[i])
		}
	}

	if br.Index != 8+4*len(floats) {
		t.Errorf("index should be %d but is %d", 8+4*len(floats), br.Index)
	}
	if br.LastIndex != 8 {
		t.Errorf("last index should mark the floats at 8 but marks %d", br.LastIndex)
	}
}

func TestBinaryReaderSticky(t *testing.T) {
	br := &libio.BinaryReader{
		Src:   bytes.NewReader([]byte{0, 0, 0, 5, 0xaa}),
		Order: binary.BigEndian,
	}

	var i int
	if !br.ReadInt32(&i) || i != 5 {
		t.Fatalf("first read should yield 5: %d, %v", i, br.Err)
	}

	if br.ReadInt32(&i) {
		t.Fatal("truncated read should fail")
	}
	first := br.Err
	if first == nil {
		t.Fatal("failed read should record an error")
	}
	if br.LastIndex != 4 {
		t.Errorf("last index should mark the failed field at 4 but marks %d", br.LastIndex)
	}

	// every later read short circuits and keeps the original error
	if br.ReadBytes(1) || br.ReadRef(&i) {
		t.Error("reads after a failure should do nothing")
	}
	if br.Err != first {
		t.Errorf("error should stick, was %v and is now %v", first, br.Err)
	}
}

func TestBinaryWriterSticky(t *testing.T) {
	bw := &libio.BinaryWriter{Dst: failWriter{}, Order: binary.BigEndian}

	if bw.WriteInt32(1) {
		t.Fatal("write to a failing writer should fail")
	}
	first := bw.Err
	if first == nil {
		t.Fatal("failed write should record an error")
	}

	if bw.WriteBytes([]byte{1}) || bw.WriteRef([]float32{1}) {
		t.Error("writes after a failure should do nothing")
	}
	if bw.Err != first {
		t.Errorf("error should stick, was %v and is now %v", first, bw.Err)
	}
}
