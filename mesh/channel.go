package mesh

import "strconv"

// Channel selects one of uv sets: 0 - uv, 1 - uv2, 2 - uv3, 3 - uv4
type Channel int

func (ch Channel) Valid() bool {
	return ch >= 0 && ch < ChannelsCount
}

// OrDefault is used by preview, unknown channels shown as channel 0
func (ch Channel) OrDefault() Channel {
	if ch.Valid() {
		return ch
	}
	return 0
}

func ParseChannel(s string) (Channel, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return Channel(v), nil
}
