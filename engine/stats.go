/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package engine

import (
	prmsdk "github.com/prometheus/client_golang/prometheus"

	"github.com/nabbar/qengine/conn"
)

// Collectors is the engine's fixed set of internal counters and
// gauges, registered against a caller-supplied registry. Unlike a
// connection's own per-CID/per-stream metrics (out of scope here),
// these describe the engine's own scheduling behavior: how much
// traffic crossed C6/C7, how often connections close, and how often
// egress is forced into backpressure.
type Collectors struct {
	packetsIn       prmsdk.Counter
	packetsOut      prmsdk.Counter
	bytesIn         prmsdk.Counter
	bytesOut        prmsdk.Counter
	packetsDropped  prmsdk.Counter
	handshakesDone  prmsdk.Counter
	connCloseFrames prmsdk.Counter
	closures        prmsdk.Counter
	backpressure    prmsdk.Counter
	activeConns     prmsdk.Gauge
}

// NewCollectors builds a Collectors and registers every metric with
// reg. reg may be nil, in which case a private registry is used; the
// counters are then still usable programmatically but never exposed
// to a scrape endpoint.
func NewCollectors(reg *prmsdk.Registry) *Collectors {
	if reg == nil {
		reg = prmsdk.NewRegistry()
	}

	c := &Collectors{
		packetsIn:       prmsdk.NewCounter(prmsdk.CounterOpts{Name: "qengine_packets_in_total", Help: "Datagrams delivered to a connection by the ingress dispatcher."}),
		packetsOut:      prmsdk.NewCounter(prmsdk.CounterOpts{Name: "qengine_packets_out_total", Help: "Packets accepted by the send callback."}),
		bytesIn:         prmsdk.NewCounter(prmsdk.CounterOpts{Name: "qengine_bytes_in_total", Help: "Bytes delivered to connections."}),
		bytesOut:        prmsdk.NewCounter(prmsdk.CounterOpts{Name: "qengine_bytes_out_total", Help: "Bytes accepted by the send callback."}),
		packetsDropped:  prmsdk.NewCounter(prmsdk.CounterOpts{Name: "qengine_packets_dropped_total", Help: "Datagrams dropped by a connection."}),
		handshakesDone:  prmsdk.NewCounter(prmsdk.CounterOpts{Name: "qengine_handshakes_total", Help: "Connections that completed a handshake."}),
		connCloseFrames: prmsdk.NewCounter(prmsdk.CounterOpts{Name: "qengine_conn_close_frames_total", Help: "CONNECTION_CLOSE frames observed."}),
		closures:        prmsdk.NewCounter(prmsdk.CounterOpts{Name: "qengine_closures_total", Help: "Connections destroyed."}),
		backpressure:    prmsdk.NewCounter(prmsdk.CounterOpts{Name: "qengine_backpressure_total", Help: "Egress flushes that set CAN_SEND false."}),
		activeConns:     prmsdk.NewGauge(prmsdk.GaugeOpts{Name: "qengine_active_connections", Help: "Connections currently tracked by the reference tracker."}),
	}

	reg.MustRegister(c.packetsIn, c.packetsOut, c.bytesIn, c.bytesOut,
		c.packetsDropped, c.handshakesDone, c.connCloseFrames,
		c.closures, c.backpressure, c.activeConns)

	return c
}

// OnDestroy is a refcount.OnDestroy callback: it sums a connection's
// final stats into the engine totals and decrements the active gauge.
// Wire it in when constructing the Tracker passed as Deps.RefTracker,
// e.g. refcount.New(collectors.OnDestroy).
func (c *Collectors) OnDestroy(_ conn.Conn, stats conn.Stats, ok bool) {
	if c == nil {
		return
	}
	c.closures.Inc()
	c.activeConns.Dec()
	if !ok {
		return
	}
	c.packetsIn.Add(float64(stats.PacketsIn))
	c.packetsOut.Add(float64(stats.PacketsOut))
	c.bytesIn.Add(float64(stats.BytesIn))
	c.bytesOut.Add(float64(stats.BytesOut))
	c.packetsDropped.Add(float64(stats.PacketsDropped))
	c.handshakesDone.Add(float64(stats.HandshakesDone))
	c.connCloseFrames.Add(float64(stats.ConnCloseFrames))
}

// OnTrack records a newly constructed connection entering the
// reference tracker.
func (c *Collectors) OnTrack() {
	if c != nil {
		c.activeConns.Inc()
	}
}

// OnBackpressure records one egress flush that set CAN_SEND false.
func (c *Collectors) OnBackpressure() {
	if c != nil {
		c.backpressure.Inc()
	}
}
