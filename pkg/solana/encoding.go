package solana

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"github.com/pkg/errors"

	"github.com/code-payments/token-vesting/pkg/solana/shortvec"
)

// Legacy wire format:
//
//	transaction: signatures (shortvec) | message
//	message:     header (3) | accounts (shortvec, 32 each) | blockhash (32) | instructions (shortvec)
//	instruction: program index (1) | account indexes (shortvec) | data (shortvec)

func (t Transaction) Marshal() []byte {
	var w wireWriter
	w.len(len(t.Signatures))
	for _, s := range t.Signatures {
		w.raw(s[:])
	}
	w.raw(t.Message.Marshal())
	return w.Bytes()
}

func (t *Transaction) Unmarshal(b []byte) error {
	if len(b) > MaxTransactionSize {
		return errors.Errorf("transaction too large: %d", len(b))
	}

	r := wireReader{Reader: bytes.NewReader(b)}

	n, err := r.len("signatures")
	if err != nil {
		return err
	}
	t.Signatures = make([]Signature, n)
	for i := range t.Signatures {
		if err := r.fill(t.Signatures[i][:], "signature"); err != nil {
			return err
		}
	}

	rest := make([]byte, r.Len())
	_, _ = r.Read(rest)
	return t.Message.Unmarshal(rest)
}

func (m Message) Marshal() []byte {
	var w wireWriter
	w.raw([]byte{m.Header.NumSignatures, m.Header.NumReadonlySigned, m.Header.NumReadOnly})

	w.len(len(m.Accounts))
	for _, a := range m.Accounts {
		w.raw(a)
	}
	w.raw(m.RecentBlockhash[:])

	w.len(len(m.Instructions))
	for _, c := range m.Instructions {
		w.raw([]byte{c.ProgramIndex})
		w.vec(c.Accounts)
		w.vec(c.Data)
	}
	return w.Bytes()
}

func (m *Message) Unmarshal(b []byte) error {
	if len(b) == 0 {
		return errors.New("empty message")
	}
	if b[0]&0x80 != 0 {
		return errors.New("versioned messages not supported")
	}

	r := wireReader{Reader: bytes.NewReader(b)}

	var header [3]byte
	if err := r.fill(header[:], "header"); err != nil {
		return err
	}
	m.Header = Header{
		NumSignatures:     header[0],
		NumReadonlySigned: header[1],
		NumReadOnly:       header[2],
	}

	n, err := r.len("accounts")
	if err != nil {
		return err
	}
	m.Accounts = make([]ed25519.PublicKey, n)
	for i := range m.Accounts {
		m.Accounts[i] = make(ed25519.PublicKey, ed25519.PublicKeySize)
		if err := r.fill(m.Accounts[i], "account"); err != nil {
			return err
		}
	}

	if err := r.fill(m.RecentBlockhash[:], "recent blockhash"); err != nil {
		return err
	}

	if n, err = r.len("instructions"); err != nil {
		return err
	}
	m.Instructions = make([]CompiledInstruction, n)
	for i := range m.Instructions {
		c, err := r.instruction(len(m.Accounts))
		if err != nil {
			return errors.Wrapf(err, "instruction[%d]", i)
		}
		m.Instructions[i] = c
	}

	return nil
}

type wireWriter struct {
	bytes.Buffer
}

func (w *wireWriter) raw(b []byte) {
	_, _ = w.Write(b)
}

func (w *wireWriter) len(n int) {
	_, _ = shortvec.EncodeLen(w, n)
}

func (w *wireWriter) vec(b []byte) {
	w.len(len(b))
	w.raw(b)
}

type wireReader struct {
	*bytes.Reader
}

func (r wireReader) len(field string) (int, error) {
	n, err := shortvec.DecodeLen(r)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to read %s length", field)
	}
	return n, nil
}

func (r wireReader) fill(dst []byte, field string) error {
	if _, err := io.ReadFull(r, dst); err != nil {
		return errors.Wrapf(err, "failed to read %s", field)
	}
	return nil
}

func (r wireReader) vec(field string) ([]byte, error) {
	n, err := r.len(field)
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	return b, r.fill(b, field)
}

func (r wireReader) instruction(numAccounts int) (c CompiledInstruction, err error) {
	if c.ProgramIndex, err = r.ReadByte(); err != nil {
		return c, errors.Wrap(err, "failed to read program index")
	}
	if int(c.ProgramIndex) >= numAccounts {
		return c, errors.Errorf("program index out of range: %d", c.ProgramIndex)
	}

	if c.Accounts, err = r.vec("account indexes"); err != nil {
		return c, err
	}
	for _, index := range c.Accounts {
		if int(index) >= numAccounts {
			return c, errors.Errorf("account index out of range: %d", index)
		}
	}

	c.Data, err = r.vec("data")
	return c, err
}
