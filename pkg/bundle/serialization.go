package bundle

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Encoder writes bundles to a binary wire format.
type Encoder struct {
	w io.Writer
}

// Decoder reads bundles from the binary wire format written by Encoder.
type Decoder struct {
	r io.Reader
}

// NewEncoder creates a bundle encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// NewDecoder creates a bundle decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Encode serializes a bundle to the writer in binary format. The hop trail
// is part of the wire format since a bundle in flight carries it. Scratch is
// never serialized: it is process-local per-holder routing state (e.g.
// Spray-and-Wait's handed-over copy count) that a Clone carries in-process
// but that has no meaning once a bundle leaves this simulation's memory.
func (e *Encoder) Encode(b *Bundle) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("bundle: refusing to encode invalid bundle: %w", err)
	}

	idBytes, err := b.ID.MarshalBinary()
	if err != nil {
		return fmt.Errorf("bundle: marshal id: %w", err)
	}
	if _, err := e.w.Write(idBytes); err != nil {
		return fmt.Errorf("bundle: write id: %w", err)
	}

	if err := e.writeString(b.Source); err != nil {
		return err
	}
	if err := e.writeString(b.Destination); err != nil {
		return err
	}

	if err := binary.Write(e.w, binary.BigEndian, b.CreationTime.UnixNano()); err != nil {
		return fmt.Errorf("bundle: write creation time: %w", err)
	}
	if err := binary.Write(e.w, binary.BigEndian, int64(b.TTL)); err != nil {
		return fmt.Errorf("bundle: write ttl: %w", err)
	}
	if err := binary.Write(e.w, binary.BigEndian, uint8(b.Priority)); err != nil {
		return fmt.Errorf("bundle: write priority: %w", err)
	}

	if err := binary.Write(e.w, binary.BigEndian, uint16(len(b.HopTrail))); err != nil {
		return fmt.Errorf("bundle: write hop trail length: %w", err)
	}
	for _, hop := range b.HopTrail {
		if err := e.writeString(hop); err != nil {
			return err
		}
	}

	if err := binary.Write(e.w, binary.BigEndian, uint32(len(b.Payload))); err != nil {
		return fmt.Errorf("bundle: write payload length: %w", err)
	}
	if _, err := e.w.Write(b.Payload); err != nil {
		return fmt.Errorf("bundle: write payload: %w", err)
	}

	return nil
}

func (e *Encoder) writeString(s string) error {
	data := []byte(s)
	if err := binary.Write(e.w, binary.BigEndian, uint16(len(data))); err != nil {
		return fmt.Errorf("bundle: write string length: %w", err)
	}
	if _, err := e.w.Write(data); err != nil {
		return fmt.Errorf("bundle: write string: %w", err)
	}
	return nil
}

// Decode deserializes a bundle from the reader.
func (d *Decoder) Decode() (*Bundle, error) {
	b := &Bundle{Scratch: make(map[string]any)}

	idBytes := make([]byte, 16)
	if _, err := io.ReadFull(d.r, idBytes); err != nil {
		return nil, fmt.Errorf("bundle: read id: %w", err)
	}
	id, err := uuid.FromBytes(idBytes)
	if err != nil {
		return nil, fmt.Errorf("bundle: parse id: %w", err)
	}
	b.ID = id

	if b.Source, err = d.readString(); err != nil {
		return nil, err
	}
	if b.Destination, err = d.readString(); err != nil {
		return nil, err
	}

	var tsNano int64
	if err := binary.Read(d.r, binary.BigEndian, &tsNano); err != nil {
		return nil, fmt.Errorf("bundle: read creation time: %w", err)
	}
	b.CreationTime = time.Unix(0, tsNano).UTC()

	var ttlNano int64
	if err := binary.Read(d.r, binary.BigEndian, &ttlNano); err != nil {
		return nil, fmt.Errorf("bundle: read ttl: %w", err)
	}
	b.TTL = time.Duration(ttlNano)

	var priority uint8
	if err := binary.Read(d.r, binary.BigEndian, &priority); err != nil {
		return nil, fmt.Errorf("bundle: read priority: %w", err)
	}
	b.Priority = Priority(priority)

	var hopCount uint16
	if err := binary.Read(d.r, binary.BigEndian, &hopCount); err != nil {
		return nil, fmt.Errorf("bundle: read hop trail length: %w", err)
	}
	b.HopTrail = make([]string, hopCount)
	for i := range b.HopTrail {
		if b.HopTrail[i], err = d.readString(); err != nil {
			return nil, err
		}
	}

	var payloadLen uint32
	if err := binary.Read(d.r, binary.BigEndian, &payloadLen); err != nil {
		return nil, fmt.Errorf("bundle: read payload length: %w", err)
	}
	b.Payload = make([]byte, payloadLen)
	if _, err := io.ReadFull(d.r, b.Payload); err != nil {
		return nil, fmt.Errorf("bundle: read payload: %w", err)
	}

	return b, nil
}

func (d *Decoder) readString() (string, error) {
	var length uint16
	if err := binary.Read(d.r, binary.BigEndian, &length); err != nil {
		return "", fmt.Errorf("bundle: read string length: %w", err)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(d.r, data); err != nil {
		return "", fmt.Errorf("bundle: read string: %w", err)
	}
	return string(data), nil
}

// Marshal serializes a bundle to bytes using the binary wire format.
func Marshal(b *Bundle) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal deserializes a bundle from bytes written by Marshal.
func Unmarshal(data []byte) (*Bundle, error) {
	return NewDecoder(bytes.NewReader(data)).Decode()
}

// MarshalJSON renders a bundle as JSON.
func (b *Bundle) MarshalJSON() ([]byte, error) {
	type bundleJSON struct {
		ID           string   `json:"id"`
		Source       string   `json:"source"`
		Destination  string   `json:"destination"`
		PayloadBytes int      `json:"payloadBytes"`
		CreationTime string   `json:"creationTime"`
		TTL          string   `json:"ttl"`
		Priority     string   `json:"priority"`
		HopTrail     []string `json:"hopTrail"`
	}
	return json.Marshal(bundleJSON{
		ID:           b.ID.String(),
		Source:       b.Source,
		Destination:  b.Destination,
		PayloadBytes: len(b.Payload),
		CreationTime: b.CreationTime.Format(time.RFC3339Nano),
		TTL:          b.TTL.String(),
		Priority:     b.Priority.String(),
		HopTrail:     b.HopTrail,
	})
}
