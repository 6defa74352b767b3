package redis

import (
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
)

// Codec serialises values stored with Client.SetObject.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec is the default codec.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// CBORCodec encodes deterministically (core deterministic sort, no
// indefinite lengths) and rejects duplicate map keys and tags on decode.
type CBORCodec struct {
	encMode cbor.EncMode
	decMode cbor.DecMode
}

func NewDeterministicEncOpts() cbor.EncOptions {
	return cbor.EncOptions{
		Sort:        cbor.SortCoreDeterministic,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeRFC3339Nano,
	}
}

func NewDeterministicDecOpts() cbor.DecOptions {
	return cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
		IntDec:      cbor.IntDecConvertSigned,
		TagsMd:      cbor.TagsForbidden,
	}
}

func NewCBORCodec(encOpts cbor.EncOptions, decOpts cbor.DecOptions) (*CBORCodec, error) {
	var err error
	c := &CBORCodec{}
	if c.encMode, err = encOpts.EncMode(); err != nil {
		return nil, err
	}
	if c.decMode, err = decOpts.DecMode(); err != nil {
		return nil, err
	}
	return c, nil
}

func (*CBORCodec) Name() string { return "cbor" }

func (c *CBORCodec) Marshal(v any) ([]byte, error) {
	return c.encMode.Marshal(v)
}

func (c *CBORCodec) Unmarshal(data []byte, v any) error {
	return c.decMode.Unmarshal(data, v)
}
