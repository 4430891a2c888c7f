//
// parser.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// ErrFormat is returned for malformed circuit descriptions.
var ErrFormat = xerrors.New("invalid circuit")

// ParseFile parses the Bristol-fashion circuit file.
func ParseFile(name string) (*Circuit, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := ParseBristol(f)
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", name, err)
	}
	return c, nil
}

type lineReader struct {
	scanner *bufio.Scanner
	lineno  int
}

func (lr *lineReader) next() ([]string, error) {
	for lr.scanner.Scan() {
		lr.lineno++
		parts := strings.Fields(lr.scanner.Text())
		if len(parts) > 0 {
			return parts, nil
		}
	}
	if err := lr.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (lr *lineReader) errorf(format string, a ...interface{}) error {
	return xerrors.Errorf("%d: %s: %w", lr.lineno,
		fmt.Sprintf(format, a...), ErrFormat)
}

func (lr *lineReader) ints(parts []string) ([]int, error) {
	result := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return nil, lr.errorf("invalid integer '%s'", p)
		}
		result[i] = v
	}
	return result, nil
}

func (lr *lineReader) io(name string) (IO, error) {
	line, err := lr.next()
	if err != nil {
		return nil, lr.errorf("missing %s line", name)
	}
	vals, err := lr.ints(line)
	if err != nil {
		return nil, err
	}
	if vals[0] != len(vals)-1 {
		return nil, lr.errorf("invalid %s line: %v", name, line)
	}
	var result IO
	for idx, size := range vals[1:] {
		result = append(result, IOArg{
			Name: name + strconv.Itoa(idx),
			Size: size,
		})
	}
	return result, nil
}

// ParseBristol parses a circuit in the Bristol fashion format:
//
//	NumGates NumWires
//	NumInputs Input0Size Input1Size...
//	NumOutputs Output0Size Output1Size...
//
//	2 1 Input0 Input1 Output OP
//	1 1 Input Output INV
func ParseBristol(in io.Reader) (*Circuit, error) {
	lr := &lineReader{
		scanner: bufio.NewScanner(in),
	}

	line, err := lr.next()
	if err != nil {
		return nil, lr.errorf("missing header")
	}
	if len(line) != 2 {
		return nil, lr.errorf("invalid header: %v", line)
	}
	hdr, err := lr.ints(line)
	if err != nil {
		return nil, err
	}
	c := &Circuit{
		NumGates: hdr[0],
		NumWires: hdr[1],
	}
	c.Inputs, err = lr.io("i")
	if err != nil {
		return nil, err
	}
	c.Outputs, err = lr.io("o")
	if err != nil {
		return nil, err
	}
	if c.Inputs.Size()+c.Outputs.Size() > c.NumWires {
		return nil, lr.errorf("too few wires: %d", c.NumWires)
	}

	for {
		line, err = lr.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(line) < 4 {
			return nil, lr.errorf("invalid gate: %v", line)
		}
		vals, err := lr.ints(line[:len(line)-1])
		if err != nil {
			return nil, err
		}
		n1, n2 := vals[0], vals[1]
		if n2 != 1 || 2+n1+n2 != len(vals) {
			return nil, lr.errorf("invalid gate: %v", line)
		}
		for _, w := range vals[2:] {
			if w >= c.NumWires {
				return nil, lr.errorf("invalid wire %d", w)
			}
		}

		var gate Gate
		switch line[len(line)-1] {
		case "XOR":
			gate.Op = XOR
		case "XNOR":
			gate.Op = XNOR
		case "AND":
			gate.Op = AND
		case "OR":
			gate.Op = OR
		case "INV", "NOT":
			gate.Op = INV
		default:
			return nil, lr.errorf("unsupported operation '%s'",
				line[len(line)-1])
		}
		switch n1 {
		case 1:
			if gate.Op != INV {
				return nil, lr.errorf("invalid gate: %v", line)
			}
			gate.Input0 = Wire(vals[2])
			gate.Output = Wire(vals[3])
		case 2:
			if gate.Op == INV {
				return nil, lr.errorf("invalid gate: %v", line)
			}
			gate.Input0 = Wire(vals[2])
			gate.Input1 = Wire(vals[3])
			gate.Output = Wire(vals[4])
		default:
			return nil, lr.errorf("invalid gate: %v", line)
		}
		c.Gates = append(c.Gates, gate)
		c.Stats[gate.Op]++
	}
	if len(c.Gates) != c.NumGates {
		return nil, xerrors.Errorf("got %d gates, expected %d: %w",
			len(c.Gates), c.NumGates, ErrFormat)
	}
	return c, nil
}
