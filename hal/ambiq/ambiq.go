// hal/ambiq/ambiq.go
//go:build tinygo && apollo3

// Package ambiq binds pdm.HAL to the AmbiqSuite HAL and provides the PDM
// interrupt vector.
package ambiq

/*
#cgo CFLAGS: -DAM_PART_APOLLO3 -DAM_PACKAGE_BGA

#include <stdbool.h>
#include <stdint.h>
#include "am_mcu_apollo.h"

static uint32_t pdm_pin_func(uint32_t pad, uint32_t funcsel) {
	am_hal_gpio_pincfg_t cfg = {0};
	cfg.uFuncSel = funcsel;
	return am_hal_gpio_pinconfig(pad, cfg);
}

static uint32_t pdm_status_get(void *h, uint32_t *status) {
	return am_hal_pdm_interrupt_status_get(h, status, true);
}

static void pdm_enable_irq(void) {
	NVIC_EnableIRQ(PDM_IRQn);
}
*/
import "C"

import (
	"unsafe"

	"apollo3-go/drivers/pdm"
)

// PDM is the hardware implementation. The zero value is ready to use.
type PDM struct {
	// live keeps the DMA target reachable while the engine writes to it.
	live []int16
}

func status(rc C.uint32_t) error { return pdm.Status(rc).Err() }

func ptr(h pdm.Handle) unsafe.Pointer { return unsafe.Pointer(uintptr(h)) }

func (p *PDM) Initialize(module uint32) (pdm.Handle, error) {
	var h unsafe.Pointer
	if err := status(C.am_hal_pdm_initialize(C.uint32_t(module), &h)); err != nil {
		return 0, err
	}
	return pdm.Handle(uintptr(h)), nil
}

func (p *PDM) PowerOn(h pdm.Handle) error {
	return status(C.am_hal_pdm_power_control(ptr(h), C.AM_HAL_PDM_POWER_ON, false))
}

func (p *PDM) Configure(h pdm.Handle, cfg pdm.Config) error {
	c := C.am_hal_pdm_config_t{
		eClkDivider:         C.am_hal_pdm_mclkdiv_e(cfg.ClockDivider),
		eLeftGain:           C.am_hal_pdm_gain_e(cfg.LeftGain),
		eRightGain:          C.am_hal_pdm_gain_e(cfg.RightGain),
		eStepSize:           C.am_hal_pdm_gain_stepsize_e(cfg.StepSize),
		ui32DecimationRate:  C.uint32_t(cfg.DecimationRate),
		bHighPassEnable:     C.bool(cfg.HighPassEnable),
		ui32HighPassCutoff:  C.uint32_t(cfg.HighPassCutoff),
		ePDMClkSpeed:        C.am_hal_pdm_clkspd_e(cfg.ClockSpeed),
		bInvertI2SBCLK:      C.bool(cfg.InvertI2SBCLK),
		ePDMClkSource:       C.am_hal_pdm_i2s_clksel_e(cfg.ClockSource),
		bPDMSampleDelay:     C.bool(cfg.SampleDelay),
		bDataPacking:        C.bool(cfg.DataPacking),
		ePCMChannels:        C.am_hal_pdm_chset_e(cfg.Channel),
		ui32GainChangeDelay: C.uint32_t(cfg.GainChangeDelay),
		bI2SEnable:          C.bool(cfg.I2SEnable),
		bSoftMute:           C.bool(cfg.SoftMute),
		bLRSwap:             C.bool(cfg.LeftRightSwapped),
	}
	return status(C.am_hal_pdm_configure(ptr(h), &c))
}

func (p *PDM) Enable(h pdm.Handle) error  { return status(C.am_hal_pdm_enable(ptr(h))) }
func (p *PDM) Disable(h pdm.Handle) error { return status(C.am_hal_pdm_disable(ptr(h))) }

func (p *PDM) InterruptEnable(h pdm.Handle, mask uint32) error {
	return status(C.am_hal_pdm_interrupt_enable(ptr(h), C.uint32_t(mask)))
}

// InterruptStatus reads the enabled sources only.
func (p *PDM) InterruptStatus(h pdm.Handle) (uint32, error) {
	var st C.uint32_t
	if err := status(C.pdm_status_get(ptr(h), &st)); err != nil {
		return 0, err
	}
	return uint32(st), nil
}

func (p *PDM) InterruptClear(h pdm.Handle, mask uint32) error {
	return status(C.am_hal_pdm_interrupt_clear(ptr(h), C.uint32_t(mask)))
}

func (p *PDM) FIFOFlush(h pdm.Handle) error { return status(C.am_hal_pdm_fifo_flush(ptr(h))) }

func (p *PDM) DMAStart(h pdm.Handle, t pdm.Transfer) error {
	var addr uintptr
	if len(t.Target) > 0 {
		addr = uintptr(unsafe.Pointer(&t.Target[0]))
	}
	x := C.am_hal_pdm_transfer_t{
		ui32TargetAddr: C.uint32_t(addr),
		ui32TotalCount: C.uint32_t(t.TotalCount),
	}
	p.live = t.Target
	return status(C.am_hal_pdm_dma_start(ptr(h), &x))
}

func (p *PDM) InterruptMasterEnable() { C.am_hal_interrupt_master_enable() }
func (p *PDM) EnableIRQ()             { C.pdm_enable_irq() }

func (p *PDM) PinFunc(pad pdm.Pad, fn pdm.FuncSel) error {
	return status(C.pdm_pin_func(C.uint32_t(pad), C.uint32_t(fn)))
}

//export am_pdm_isr
func pdmISR() {
	pdm.Interrupt()
}

var _ pdm.HAL = (*PDM)(nil)
