package telnet

// NAWS window-size subnegotiation carries two 16-bit big-endian values:
// width then height. Either may itself contain the byte 0xFF, which the
// Decoder has already un-escaped by the time this parses the payload.
func ParseNAWS(data []byte) (width, height int, ok bool) {
	if len(data) < 4 {
		return 0, 0, false
	}
	width = int(data[0])<<8 | int(data[1])
	height = int(data[2])<<8 | int(data[3])
	return width, height, true
}
