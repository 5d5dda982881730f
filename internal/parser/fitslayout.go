package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	fitsBlock = 2880
	fitsCard  = 80
)

// fitsio prefixes every character cell with a NUL byte on write and drops a
// leading NUL on read, so a one-byte column such as VizieR's l_m cannot hold
// a flag through it. binaryLayout locates cells in the raw stream instead.
type binaryLayout struct {
	dataStart int
	rowSize   int
	rows      int
	columns   map[string]binaryColumn
}

type binaryColumn struct {
	offset int
	width  int
	code   byte
}

// locateTable finds extension ext (0 is the primary HDU) and describes its
// rows. It fails unless the extension is a binary table held entirely in data.
func locateTable(data []byte, ext int) (binaryLayout, error) {
	pos := 0
	for i := 0; ; i++ {
		h, start, err := readFITSHeader(data, pos)
		if err != nil {
			return binaryLayout{}, err
		}
		if i < ext {
			pos = start + padBlock(h.dataSize())
			continue
		}
		if h["XTENSION"] != "BINTABLE" {
			return binaryLayout{}, fmt.Errorf("hdu %d is not a binary table", ext)
		}

		l := binaryLayout{
			dataStart: start,
			rowSize:   h.int("NAXIS1"),
			rows:      h.int("NAXIS2"),
			columns:   make(map[string]binaryColumn),
		}
		off := 0
		for c := 1; c <= h.int("TFIELDS"); c++ {
			width, code, err := formWidth(h[fmt.Sprintf("TFORM%d", c)])
			if err != nil {
				return binaryLayout{}, err
			}
			l.columns[h[fmt.Sprintf("TTYPE%d", c)]] = binaryColumn{offset: off, width: width, code: code}
			off += width
		}
		if off > l.rowSize || start+l.rowSize*l.rows > len(data) {
			return binaryLayout{}, errors.New("binary table truncated")
		}
		return l, nil
	}
}

// cell returns the bytes of column name in row. The slice aliases the input.
func (l binaryLayout) cell(data []byte, row int, name string) ([]byte, bool) {
	col, ok := l.columns[name]
	if !ok || row < 0 || row >= l.rows {
		return nil, false
	}
	beg := l.dataStart + row*l.rowSize + col.offset
	return data[beg : beg+col.width], true
}

type fitsHeader map[string]string

// readFITSHeader reads the header starting at pos and returns its keyword
// values plus the offset of the first data byte.
func readFITSHeader(data []byte, pos int) (fitsHeader, int, error) {
	h := fitsHeader{}
	for off := pos; off+fitsCard <= len(data); off += fitsCard {
		card := string(data[off : off+fitsCard])
		key := strings.TrimSpace(card[:8])
		if key == "END" {
			return h, pos + padBlock(off+fitsCard-pos), nil
		}
		if card[8:10] == "= " {
			h[key] = cardValue(card[10:])
		}
	}
	return nil, 0, errors.New("fits header without END card")
}

func cardValue(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "'") {
		if i := strings.IndexByte(s, '/'); i >= 0 {
			s = s[:i]
		}
		return strings.TrimSpace(s)
	}
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		if s[i] != '\'' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == '\'' {
			b.WriteByte('\'')
			i++
			continue
		}
		break
	}
	return strings.TrimRight(b.String(), " ")
}

func (h fitsHeader) int(key string) int {
	v, _ := strconv.Atoi(h[key])
	return v
}

// dataSize is the unpadded size of the data following the header.
func (h fitsHeader) dataSize() int {
	naxis := h.int("NAXIS")
	if naxis == 0 {
		return 0
	}
	n := 1
	for i := 1; i <= naxis; i++ {
		n *= h.int(fmt.Sprintf("NAXIS%d", i))
	}
	gcount := 1
	if _, ok := h["GCOUNT"]; ok {
		gcount = h.int("GCOUNT")
	}
	bitpix := h.int("BITPIX")
	if bitpix < 0 {
		bitpix = -bitpix
	}
	return bitpix / 8 * gcount * (h.int("PCOUNT") + n)
}

// formWidth returns the byte width of a binary table TFORM such as "1A",
// "E" or "8A", and its type code.
func formWidth(form string) (int, byte, error) {
	form = strings.TrimSpace(form)
	j := 0
	for j < len(form) && form[j] >= '0' && form[j] <= '9' {
		j++
	}
	if j == len(form) {
		return 0, 0, fmt.Errorf("invalid TFORM %q", form)
	}
	repeat := 1
	if j > 0 {
		r, err := strconv.Atoi(form[:j])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid TFORM %q: %w", form, err)
		}
		repeat = r
	}

	code := form[j]
	switch code {
	case 'L', 'B', 'A':
		return repeat, code, nil
	case 'X':
		return (repeat + 7) / 8, code, nil
	case 'I':
		return 2 * repeat, code, nil
	case 'J', 'E':
		return 4 * repeat, code, nil
	case 'K', 'D', 'C', 'P':
		return 8 * repeat, code, nil
	case 'M', 'Q':
		return 16 * repeat, code, nil
	default:
		return 0, 0, fmt.Errorf("invalid TFORM %q", form)
	}
}

func padBlock(n int) int {
	return (n + fitsBlock - 1) / fitsBlock * fitsBlock
}
