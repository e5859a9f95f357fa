package catalog

import (
	"encoding/binary"
	"math"

	"github.com/fowlerlee/geeqodb/pkg/errors"
	"github.com/fowlerlee/geeqodb/pkg/types"
)

// encodeRow serializes a fixed-arity row to the byte shape pkg/rowstore
// persists: one tag byte per value followed by its payload, positional
// order matching the table's column list.
func encodeRow(values []types.Value) []byte {
	buf := make([]byte, 0, len(values)*9)
	for _, v := range values {
		buf = append(buf, byte(v.Tag()))
		switch v.Tag() {
		case types.TagInteger:
			var tmp [8]byte
			binary.LittleEndian.PutUint64(tmp[:], uint64(v.Integer()))
			buf = append(buf, tmp[:]...)
		case types.TagFloat:
			var tmp [8]byte
			binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v.Float()))
			buf = append(buf, tmp[:]...)
		case types.TagText:
			s := v.Text()
			var lenBuf [4]byte
			binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
			buf = append(buf, lenBuf[:]...)
			buf = append(buf, s...)
		case types.TagBoolean:
			if v.Boolean() {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		case types.TagNull:
			// no payload
		}
	}
	return buf
}

// decodeRow parses exactly want values out of buf.
func decodeRow(buf []byte, want int) ([]types.Value, error) {
	values := make([]types.Value, 0, want)
	pos := 0
	for i := 0; i < want; i++ {
		if pos >= len(buf) {
			return nil, errors.Newf("row codec: truncated row, expected %d columns, ran out after %d", want, i)
		}
		tag := types.Tag(buf[pos])
		pos++
		switch tag {
		case types.TagInteger:
			if pos+8 > len(buf) {
				return nil, errors.New("row codec: truncated integer value")
			}
			v := int64(binary.LittleEndian.Uint64(buf[pos : pos+8]))
			values = append(values, types.NewInteger(v))
			pos += 8
		case types.TagFloat:
			if pos+8 > len(buf) {
				return nil, errors.New("row codec: truncated float value")
			}
			bits := binary.LittleEndian.Uint64(buf[pos : pos+8])
			values = append(values, types.NewFloat(math.Float64frombits(bits)))
			pos += 8
		case types.TagText:
			if pos+4 > len(buf) {
				return nil, errors.New("row codec: truncated text length")
			}
			n := int(binary.LittleEndian.Uint32(buf[pos : pos+4]))
			pos += 4
			if pos+n > len(buf) {
				return nil, errors.New("row codec: truncated text value")
			}
			values = append(values, types.NewText(string(buf[pos:pos+n])))
			pos += n
		case types.TagBoolean:
			if pos >= len(buf) {
				return nil, errors.New("row codec: truncated boolean value")
			}
			values = append(values, types.NewBoolean(buf[pos] == 1))
			pos++
		case types.TagNull:
			values = append(values, types.NewNull())
		default:
			return nil, errors.Newf("row codec: unknown tag byte %d", tag)
		}
	}
	return values, nil
}
