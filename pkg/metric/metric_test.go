// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metric

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRecovery(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	m := NewRecovery(reg)
	m.Runs.WithLabelValues("ok").Inc()
	m.Transactions.WithLabelValues("write", "ok").Add(3)
	m.ErasePolls.WithLabelValues("2").Inc()
	m.EraseDuration.WithLabelValues("2").Observe(0.5)
	m.Protection.WithLabelValues("2", "APPROTECTDISABLE").Set(0)

	if v := testutil.ToFloat64(m.Transactions.WithLabelValues("write", "ok")); v != 3 {
		t.Errorf("Expected 3 write transactions, got %v", v)
	}
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	n := 0
	for _, mf := range mfs {
		n += len(mf.GetMetric())
	}
	if n != 5 {
		t.Errorf("Expected 5 series, got %d", n)
	}
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := Counter(reg, MetricOpts{Namespace: "ns", Subsystem: "sub", Name: "thing_total"}, []string{"a"})
	c.WithLabelValues("b").Inc()

	path := filepath.Join(t.TempDir(), "aprecover.prom")
	if err := WriteTextfile(reg, path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"# HELP ns_sub_thing_total thing total", `ns_sub_thing_total{a="b"} 1`} {
		if !strings.Contains(string(b), want) {
			t.Errorf("Expected %q in textfile:\n%s", want, b)
		}
	}
}
