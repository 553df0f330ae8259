package fits

import "fmt"

// card renders one 80-byte FITS header card "KEYWORD = value".
func card(key, value string) string {
	s := fmt.Sprintf("%-8s= %s", key, value)
	for len(s) < cardSize {
		s += " "
	}
	return s[:cardSize]
}

func strCard(key, value string) string {
	return card(key, fmt.Sprintf("'%-8s'", value))
}

// buildHeaderBytes assembles cards into a 2880-byte-aligned header block
// sequence terminated by END, the way a real FITS HDU header is laid out.
func buildHeaderBytes(cards ...string) []byte {
	var raw []byte
	for _, c := range cards {
		raw = append(raw, []byte(c)...)
	}
	raw = append(raw, []byte(card("END", ""))...)
	for len(raw)%blockSize != 0 {
		raw = append(raw, ' ')
	}
	return raw
}
