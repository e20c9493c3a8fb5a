package render

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// ErrDeviceClosed is returned by Do after Close.
var ErrDeviceClosed = errors.New("render: device closed")

// Device runs rasterizer work on a single goroutine locked to its OS thread.
// Rasterizer backends that keep thread-affine state (GL contexts, driver
// handles) are only ever touched from that thread.
type Device struct {
	calls chan func()
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewDevice starts the device goroutine.
func NewDevice() *Device {
	d := &Device{
		calls: make(chan func()),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *Device) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(d.done)

	for {
		select {
		case fn := <-d.calls:
			fn()
		case <-d.quit:
			return
		}
	}
}

// Do runs fn on the device thread and blocks until it returns. A panic in fn
// is reported as an error wrapping ErrRasterizer.
func (d *Device) Do(fn func() error) error {
	errc := make(chan error, 1)
	call := func() {
		defer func() {
			if r := recover(); r != nil {
				errc <- fmt.Errorf("%w: panic: %v", ErrRasterizer, r)
			}
		}()
		errc <- fn()
	}

	select {
	case d.calls <- call:
	case <-d.quit:
		return ErrDeviceClosed
	}
	return <-errc
}

// Rasterize runs r.Rasterize on the device thread.
func (d *Device) Rasterize(r Rasterizer, req *Request) ([]*RGBABuffer, error) {
	var out []*RGBABuffer
	err := d.Do(func() error {
		var err error
		out, err = r.Rasterize(req)
		return err
	})
	return out, err
}

// Close stops the device goroutine and waits for it to exit. It is safe to
// call more than once.
func (d *Device) Close() {
	d.once.Do(func() { close(d.quit) })
	<-d.done
}
