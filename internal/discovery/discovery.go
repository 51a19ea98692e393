// Package discovery finds health-monitor brokers on the local network over
// mDNS (DNS-SD), using github.com/grandcat/zeroconf.
//
// A broker advertises _mqtt._tcp with a TXT record service=health-monitoring.
// Scanner keeps only matching services, reports each host:port once per scan,
// and calls the timeout callback when the scan window closes on its own.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/gbetibienvenu/HealthMonitorApp/internal/session"
)

// Defaults match the broker's advertisement.
const (
	DefaultServiceType = "_mqtt._tcp"
	DefaultDomain      = "local."
	DefaultTxtService  = "health-monitoring"
	DefaultTimeout     = 30 * time.Second
	DefaultPort        = 1883
)

// ErrScanInProgress is returned by StartScan while another scan is running.
var ErrScanInProgress = errors.New("discovery: scan already in progress")

// Browser is the DNS-SD browse call. *zeroconf.Resolver implements it.
type Browser interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

// BrowserFactory returns a Browser for one scan.
type BrowserFactory func() (Browser, error)

// NewResolver returns a zeroconf resolver on all multicast interfaces. A
// resolver closes its sockets when its first Browse ends, so it serves a
// single scan.
func NewResolver() (Browser, error) {
	r, err := zeroconf.NewResolver()
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Logger is the subset of a structured logger used by Scanner.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}

// Device is a discovered broker.
type Device struct {
	Name      string            `json:"name"`
	Host      string            `json:"host"`
	HostName  string            `json:"host_name,omitempty"`
	Addresses []string          `json:"addresses"`
	Port      int               `json:"port"`
	Txt       map[string]string `json:"txt,omitempty"`
}

// Key identifies a device for de-duplication.
func (d Device) Key() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// Target returns the session target for d.
func (d Device) Target() session.Target {
	return session.Target{Host: d.Host, Port: d.Port}
}

// Options configures a Scanner. Zero fields take the package defaults.
type Options struct {
	ServiceType string
	Domain      string
	// TxtService is the required value of the TXT "service" key. Empty
	// accepts every service of ServiceType.
	TxtService string
	Timeout    time.Duration
}

func (o Options) withDefaults() Options {
	if o.ServiceType == "" {
		o.ServiceType = DefaultServiceType
	}
	if o.Domain == "" {
		o.Domain = DefaultDomain
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// Scanner runs one mDNS scan at a time.
type Scanner struct {
	newBrowser BrowserFactory
	opts       Options
	logger     Logger

	mu      sync.Mutex
	devices map[string]Device
	order   []string
	cancel  context.CancelFunc
	stopped bool
	done    chan struct{}
}

// NewScanner returns a Scanner that takes a fresh Browser from newBrowser
// for every scan.
func NewScanner(newBrowser BrowserFactory, opts Options, logger Logger) *Scanner {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Scanner{
		newBrowser: newBrowser,
		opts:       opts.withDefaults(),
		logger:     logger,
		devices:    make(map[string]Device),
	}
}

// StartScan clears previous results and browses until the timeout, ctx
// cancellation or StopScan. onFound is called once per new device;
// onTimeout only when the timeout ends the scan. Callbacks run on the
// scanner's goroutine and may be nil.
func (s *Scanner) StartScan(ctx context.Context, onFound func(Device), onTimeout func()) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return ErrScanInProgress
	}
	scanCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	s.devices = make(map[string]Device)
	s.order = nil
	s.cancel = cancel
	s.stopped = false
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	browser, err := s.newBrowser()
	if err != nil {
		cancel()
		s.finish(done)
		return fmt.Errorf("creating mdns browser: %w", err)
	}
	entries := make(chan *zeroconf.ServiceEntry)
	if err := browser.Browse(scanCtx, s.opts.ServiceType, s.opts.Domain, entries); err != nil {
		cancel()
		s.finish(done)
		return err
	}
	s.logger.Info("mdns scan started", "service", s.opts.ServiceType, "timeout", s.opts.Timeout)

	go s.collect(scanCtx, entries, onFound, onTimeout, done)
	return nil
}

func (s *Scanner) collect(ctx context.Context, entries <-chan *zeroconf.ServiceEntry, onFound func(Device), onTimeout func(), done chan struct{}) {
	defer s.finish(done)
	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			timedOut := !s.stopped && errors.Is(ctx.Err(), context.DeadlineExceeded)
			s.mu.Unlock()
			s.logger.Info("mdns scan finished", "devices", len(s.Devices()), "timed_out", timedOut)
			if timedOut && onTimeout != nil {
				onTimeout()
			}
			return
		case entry, ok := <-entries:
			if !ok {
				entries = nil
				continue
			}
			if dev, isNew := s.handleEntry(entry); isNew && onFound != nil {
				onFound(dev)
			}
		}
	}
}

func (s *Scanner) finish(done chan struct{}) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
	close(done)
}

// handleEntry records a matching entry and reports whether it is new. An
// entry with TTL zero is a goodbye and removes the device.
func (s *Scanner) handleEntry(e *zeroconf.ServiceEntry) (Device, bool) {
	if e == nil {
		return Device{}, false
	}
	dev, ok := deviceFromEntry(e, s.opts.TxtService)
	if !ok {
		s.logger.Debug("mdns service ignored", "instance", e.Instance)
		return Device{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := dev.Key()
	if e.TTL == 0 {
		if _, exists := s.devices[key]; exists {
			delete(s.devices, key)
			for i, k := range s.order {
				if k == key {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
			s.logger.Debug("mdns service removed", "device", key)
		}
		return Device{}, false
	}
	if _, exists := s.devices[key]; exists {
		return Device{}, false
	}
	s.devices[key] = dev
	s.order = append(s.order, key)
	s.logger.Info("broker discovered", "name", dev.Name, "device", key)
	return dev, true
}

// StopScan ends a running scan without calling onTimeout and waits for the
// scanner goroutine to exit. It is a no-op when no scan is running.
func (s *Scanner) StopScan() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	if cancel == nil {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	cancel()
	<-done
}

// Scanning reports whether a scan is running.
func (s *Scanner) Scanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Devices returns devices found by the current or last scan, in discovery
// order.
func (s *Scanner) Devices() []Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Device, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.devices[k])
	}
	return out
}

// FirstDevice returns the earliest device found, if any.
func (s *Scanner) FirstDevice() (Device, bool) {
	devices := s.Devices()
	if len(devices) == 0 {
		return Device{}, false
	}
	return devices[0], true
}

// Clear forgets discovered devices.
func (s *Scanner) Clear() {
	s.mu.Lock()
	s.devices = make(map[string]Device)
	s.order = nil
	s.mu.Unlock()
}

// deviceFromEntry converts an entry, rejecting services without addresses
// or with a non-matching TXT service key.
func deviceFromEntry(e *zeroconf.ServiceEntry, txtService string) (Device, bool) {
	txt := parseTxt(e.Text)
	if txtService != "" && txt["service"] != txtService {
		return Device{}, false
	}

	var addrs []string
	for _, ip := range e.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range e.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	if len(addrs) == 0 {
		return Device{}, false
	}

	port := e.Port
	if port == 0 {
		port = DefaultPort
	}
	name := e.Instance
	if name == "" {
		name = "Health Monitor"
	}
	return Device{
		Name:      name,
		Host:      addrs[0],
		HostName:  strings.TrimSuffix(e.HostName, "."),
		Addresses: addrs,
		Port:      port,
		Txt:       txt,
	}, true
}

// parseTxt splits key=value TXT strings. Keys without a value map to "".
func parseTxt(records []string) map[string]string {
	txt := make(map[string]string, len(records))
	for _, r := range records {
		k, v, _ := strings.Cut(r, "=")
		if k != "" {
			txt[k] = v
		}
	}
	return txt
}
