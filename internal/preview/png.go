package preview

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// InjectDensity inserts a pHYs chunk carrying the physical pixel density
// immediately before the first IDAT chunk. The pixel data is never decoded
// or re-encoded. Inputs that are not PNGs, already carry a pHYs chunk, or
// have no IDAT chunk are returned unchanged.
func InjectDensity(data []byte, dpi int) []byte {
	if !bytes.HasPrefix(data, pngSignature) {
		return data
	}
	if bytes.Contains(data, []byte("pHYs")) {
		return data
	}

	idat := bytes.Index(data, []byte("IDAT"))
	if idat < 4 {
		return data
	}

	// pixels per metre, truncated
	ppm := uint32(float64(dpi) / 0.0254)

	chunkData := make([]byte, 9)
	binary.BigEndian.PutUint32(chunkData[0:4], ppm)
	binary.BigEndian.PutUint32(chunkData[4:8], ppm)
	chunkData[8] = 0x01 // unit is the metre

	chunk := make([]byte, 0, 21)
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(len(chunkData)))
	chunk = append(chunk, buf[:]...)
	chunk = append(chunk, 'p', 'H', 'Y', 's')
	chunk = append(chunk, chunkData...)

	crc := crc32.NewIEEE()
	crc.Write([]byte("pHYs"))
	crc.Write(chunkData)
	binary.BigEndian.PutUint32(buf[:], crc.Sum32())
	chunk = append(chunk, buf[:]...)

	// insert before the IDAT length field, which sits 4 bytes ahead of
	// the chunk type
	insertAt := idat - 4
	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:insertAt]...)
	out = append(out, chunk...)
	out = append(out, data[insertAt:]...)
	return out
}
