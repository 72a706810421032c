package sensor

// Source: https://www.ti.com/lit/ds/symlink/ads1263.pdf

// Register addresses.
const (
	RegID        = 0x00
	RegPower     = 0x01
	RegInterface = 0x02
	RegMode0     = 0x03
	RegMode1     = 0x04
	RegMode2     = 0x05
	RegInpMux    = 0x06
	RegOfCal0    = 0x07
	RegOfCal1    = 0x08
	RegOfCal2    = 0x09
	RegFsCal0    = 0x0A
	RegFsCal1    = 0x0B
	RegFsCal2    = 0x0C
	RegIdacMux   = 0x0D
	RegIdacMag   = 0x0E
	RegRefMux    = 0x0F

	numRegisters = 0x1B
)

// Command opcodes.
const (
	CmdNop     = 0x00
	CmdReset   = 0x06
	CmdStart1  = 0x08
	CmdStop1   = 0x0A
	CmdRData1  = 0x12
	CmdSyOCal1 = 0x16
	CmdSyGCal1 = 0x17
	CmdSFOCal1 = 0x19
	CmdRReg    = 0x20 // 0x20 | reg
	CmdWReg    = 0x40 // 0x40 | reg
)

// ChipIDADS1263 is the value of ID[7:5] for an ADS1263.
const ChipIDADS1263 = 0x01

// Status byte flags returned ahead of conversion data.
const (
	statusADC1New = 0x40
)

// Base configuration written by Init before any profile is applied.
const (
	mode2PGABypass = 0x80
	refMuxVDDVSS   = 0x24
	mode0Delay35us = 0x03
	mode1FIR       = 0x84
)

// Multiplexer settings.
const (
	InpMuxFloating = 0xFF
	InpMuxDefault  = 0x01
	inpMuxAINCOM   = 0x0A
)

// DataRate is the 4-bit MODE2 data rate code.
type DataRate byte

const (
	Rate2d5SPS   DataRate = 0x00
	Rate5SPS     DataRate = 0x01
	Rate10SPS    DataRate = 0x02
	Rate16d6SPS  DataRate = 0x03
	Rate20SPS    DataRate = 0x04
	Rate50SPS    DataRate = 0x05
	Rate60SPS    DataRate = 0x06
	Rate100SPS   DataRate = 0x07
	Rate400SPS   DataRate = 0x08
	Rate1200SPS  DataRate = 0x09
	Rate2400SPS  DataRate = 0x0A
	Rate4800SPS  DataRate = 0x0B
	Rate7200SPS  DataRate = 0x0C
	Rate14400SPS DataRate = 0x0D
	Rate19200SPS DataRate = 0x0E
	Rate38400SPS DataRate = 0x0F
)
