package sensor

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi"
)

// chipConn emulates the ADS1263 side of the SPI bus: a register file,
// a command log and a queue of conversion results.
type chipConn struct {
	regs     [numRegisters]byte
	writes   [][2]byte
	commands []byte
	codes    []uint32
	notReady int
	badCRC   bool
	failTx   error
}

func newChipConn() *chipConn {
	c := &chipConn{}
	c.regs[RegID] = ChipIDADS1263<<5 | 0x03
	return c
}

func (c *chipConn) String() string                 { return "chip" }
func (c *chipConn) Duplex() conn.Duplex            { return conn.Full }
func (c *chipConn) TxPackets(p []spi.Packet) error { return errors.New("not supported") }

func (c *chipConn) Tx(w, r []byte) error {
	if c.failTx != nil {
		return c.failTx
	}
	op := w[0]
	switch {
	case op == CmdRData1:
		if c.notReady > 0 {
			c.notReady--
			r[1] = 0
			return nil
		}
		var code uint32
		if len(c.codes) > 0 {
			code, c.codes = c.codes[0], c.codes[1:]
		}
		r[1] = statusADC1New
		binary.BigEndian.PutUint32(r[2:6], code)
		r[6] = checksum(code)
		if c.badCRC {
			r[6] ^= 0xFF
		}
	case op&0xE0 == CmdWReg:
		c.regs[op&0x1F] = w[2]
		c.writes = append(c.writes, [2]byte{op & 0x1F, w[2]})
	case op&0xE0 == CmdRReg:
		r[2] = c.regs[op&0x1F]
	default:
		c.commands = append(c.commands, op)
	}
	return nil
}

func newTestChip(t *testing.T, c *chipConn, drdy gpio.Level) (*ADS1263, *gpiotest.Pin) {
	t.Helper()
	rst := &gpiotest.Pin{N: "RST"}
	d, err := newADS1263(c, rst, &gpiotest.Pin{N: "DRDY", L: drdy}, &gpiotest.Pin{N: "CS"}, 5*time.Millisecond)
	require.NoError(t, err)
	d.sleep = func(time.Duration) {}
	return d, rst
}

func TestInitWritesBaseConfig(t *testing.T) {
	c := newChipConn()
	d, rst := newTestChip(t, c, gpio.Low)

	require.NoError(t, d.Init(Rate400SPS))

	assert.Equal(t, byte(0x88), c.regs[RegMode2])
	assert.Equal(t, byte(0x24), c.regs[RegRefMux])
	assert.Equal(t, byte(0x03), c.regs[RegMode0])
	assert.Equal(t, byte(0x84), c.regs[RegMode1])
	assert.Equal(t, []byte{CmdStop1}, c.commands)
	assert.Equal(t, gpio.High, rst.Read())
}

func TestInitRejectsUnknownChip(t *testing.T) {
	c := newChipConn()
	c.regs[RegID] = 0x00
	d, _ := newTestChip(t, c, gpio.Low)

	err := d.Init(Rate400SPS)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chip id")
}

func TestSampleChannelsDifferential(t *testing.T) {
	c := newChipConn()
	c.codes = []uint32{0x40000000, 0xFFFFFF00, 0x00000010}
	d, _ := newTestChip(t, c, gpio.Low)
	require.NoError(t, d.SetMode(ModeDifferential))

	got, err := d.SampleChannels(context.Background(), []int{0, 1, 2})
	require.NoError(t, err)

	assert.Equal(t, []Sample{
		{Channel: 0, Code: 0x40000000, Status: StatusOK},
		{Channel: 1, Code: -256, Status: StatusOK},
		{Channel: 2, Code: 0x10, Status: StatusOK},
	}, got)
	assert.Equal(t, [][2]byte{{RegInpMux, 0x01}, {RegInpMux, 0x23}, {RegInpMux, 0x45}}, c.writes)
	assert.Equal(t, []byte{CmdStart1, CmdStart1, CmdStart1}, c.commands)
}

func TestSampleChannelsWaitsForNewData(t *testing.T) {
	c := newChipConn()
	c.codes = []uint32{0x1234}
	c.notReady = 3
	d, _ := newTestChip(t, c, gpio.Low)

	got, err := d.SampleChannels(context.Background(), []int{0})
	require.NoError(t, err)
	assert.Equal(t, []Sample{{Channel: 0, Code: 0x1234, Status: StatusOK}}, got)
}

func TestSampleChannelsTimeout(t *testing.T) {
	c := newChipConn()
	d, _ := newTestChip(t, c, gpio.High)
	require.NoError(t, d.SetMode(ModeDifferential))

	got, err := d.SampleChannels(context.Background(), []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, []Sample{
		{Channel: 0, Status: StatusTimeout},
		{Channel: 1, Status: StatusTimeout},
	}, got)
}

func TestSampleChannelsChecksumMismatch(t *testing.T) {
	c := newChipConn()
	c.codes = []uint32{0x100}
	c.badCRC = true
	d, _ := newTestChip(t, c, gpio.Low)

	got, err := d.SampleChannels(context.Background(), []int{0})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, StatusChecksum, got[0].Status)
	assert.False(t, got[0].OK())
}

func TestSampleChannelsTransportError(t *testing.T) {
	c := newChipConn()
	d, _ := newTestChip(t, c, gpio.Low)
	c.failTx = errors.New("bus gone")

	_, err := d.SampleChannels(context.Background(), []int{0})
	require.Error(t, err)
	assert.ErrorIs(t, err, c.failTx)
}

func TestSampleChannelsCancelled(t *testing.T) {
	c := newChipConn()
	d, _ := newTestChip(t, c, gpio.Low)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.SampleChannels(ctx, []int{0})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSampleChannelsInvalidChannel(t *testing.T) {
	c := newChipConn()
	d, _ := newTestChip(t, c, gpio.Low)
	require.NoError(t, d.SetMode(ModeDifferential))

	_, err := d.SampleChannels(context.Background(), []int{5})
	assert.Error(t, err)
}

// stuckPin fails to drive high once stuck is set.
type stuckPin struct {
	gpiotest.Pin
	stuck bool
}

func (p *stuckPin) Out(l gpio.Level) error {
	if p.stuck && l == gpio.High {
		return errors.New("line stuck low")
	}
	return p.Pin.Out(l)
}

func TestChipSelectReleaseError(t *testing.T) {
	c := newChipConn()
	cs := &stuckPin{Pin: gpiotest.Pin{N: "CS"}}
	d, err := newADS1263(c, &gpiotest.Pin{N: "RST"}, &gpiotest.Pin{N: "DRDY"}, cs, 5*time.Millisecond)
	require.NoError(t, err)
	cs.stuck = true

	err = d.WriteCommand(CmdStart1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deselect")
	assert.Equal(t, []byte{CmdStart1}, c.commands)
}

func TestCloseIsIdempotent(t *testing.T) {
	c := newChipConn()
	d, rst := newTestChip(t, c, gpio.Low)
	require.NoError(t, d.Init(Rate400SPS))

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	assert.Equal(t, gpio.Low, rst.Read())
	assert.Equal(t, []byte{CmdStop1, CmdStop1}, c.commands)
}

func TestMuxForChannel(t *testing.T) {
	tests := []struct {
		mode Mode
		ch   int
		want byte
		ok   bool
	}{
		{ModeDifferential, 0, 0x01, true},
		{ModeDifferential, 1, 0x23, true},
		{ModeDifferential, 4, 0x89, true},
		{ModeDifferential, 5, 0, false},
		{ModeSingleEnded, 0, 0x0A, true},
		{ModeSingleEnded, 9, 0x9A, true},
		{ModeSingleEnded, -1, 0, false},
	}
	for _, tt := range tests {
		got, err := muxForChannel(tt.mode, tt.ch)
		if !tt.ok {
			assert.Error(t, err, "%s channel %d", tt.mode, tt.ch)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s channel %d", tt.mode, tt.ch)
	}
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, byte(0x9B), checksum(0))
	assert.Equal(t, byte(0xA5), checksum(0x01020304))
	assert.Equal(t, byte(0x97), checksum(0xFFFFFFFF))
}

func TestParseDataRate(t *testing.T) {
	r, err := ParseDataRate(400)
	require.NoError(t, err)
	assert.Equal(t, Rate400SPS, r)

	r, err = ParseDataRate(2.5)
	require.NoError(t, err)
	assert.Equal(t, Rate2d5SPS, r)

	_, err = ParseDataRate(401)
	assert.Error(t, err)
}
