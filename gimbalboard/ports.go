package gimbalboard

import "github.com/sergev/gimbal/stabilizer"

// The stabilizer's actuation interfaces carry no error returns, matching
// the contract that a dispatch never fails. Transport errors are counted
// on the client and surfaced through PrintStatus; the watchdog covers a
// board that stops responding.

// recordErr notes a failed output write.
func (c *Client) recordErr(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	c.ioFailures++
	c.lastErr = err
	c.mu.Unlock()
}

// enableLine adapts the board's enable command to stabilizer.EnableLine.
type enableLine struct {
	client *Client
}

func (e enableLine) Set(on bool) {
	e.client.recordErr(e.client.SetEnable(on))
}

// motorPort adapts one output port to stabilizer.Motor.
type motorPort struct {
	client *Client
	port   int
}

func (m motorPort) Set(a, b, c uint16) {
	m.client.recordErr(m.client.SetPhases(m.port, a, b, c))
}

// EnableLine returns the board's motor power enable line.
func (c *Client) EnableLine() stabilizer.EnableLine {
	return enableLine{client: c}
}

// Motor returns the three-phase output for port 1 or 2.
func (c *Client) Motor(port int) stabilizer.Motor {
	return motorPort{client: c, port: port}
}
