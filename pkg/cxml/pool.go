package cxml

import "sync"

// Pool recycles encoders and decoders. Instances are reset on the way in and
// on the way out, so a caller always starts a clean session. The pool is safe
// for concurrent use; the instances it hands out are not.
type Pool struct {
	encoders sync.Pool
	decoders sync.Pool
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{
		encoders: sync.Pool{New: func() any { return NewEncoder() }},
		decoders: sync.Pool{New: func() any { return NewDecoder() }},
	}
}

// GetEncoder returns an encoder holding only the prolog.
func (p *Pool) GetEncoder() *Encoder {
	e := p.encoders.Get().(*Encoder)
	e.Reset()
	return e
}

// PutEncoder returns e to the pool. Any slice obtained from e.Bytes must not
// be used afterwards.
func (p *Pool) PutEncoder(e *Encoder) {
	if e == nil {
		return
	}
	e.Reset()
	p.encoders.Put(e)
}

// GetDecoder returns a decoder in the AwaitingProlog state.
func (p *Pool) GetDecoder() *Decoder {
	d := p.decoders.Get().(*Decoder)
	d.Reset()
	return d
}

// PutDecoder returns d to the pool.
func (p *Pool) PutDecoder(d *Decoder) {
	if d == nil {
		return
	}
	d.Reset()
	p.decoders.Put(d)
}
