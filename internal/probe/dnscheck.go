package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/hamed0406/urlmonitor/internal/domain"
)

const (
	DNSInvalidName = "INVALID_NAME"
	DNSNXDomain    = "NXDOMAIN"
	DNSNoARecord   = "NO_A_RECORD"
	DNSResolves    = "RESOLVES"
	DNSServFail    = "SERVFAIL_or_TIMEOUT"
)

type DNSStatus struct {
	Domain        string
	HasAOrAAAA    bool
	CNAME         string
	HasNS         bool
	Class         string
	ResolverError string
}

var dnsTimeout = 3 * time.Second

// Resolver is the subset of *net.Resolver used for diagnostics.
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
	LookupCNAME(ctx context.Context, host string) (string, error)
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
}

func CheckDNS(ctx context.Context, r Resolver, domainName string) DNSStatus {
	s := DNSStatus{Domain: strings.TrimSpace(domainName)}
	if s.Domain == "" || strings.Contains(s.Domain, "://") {
		s.Class = DNSInvalidName
		return s
	}
	if net.ParseIP(s.Domain) != nil {
		s.HasAOrAAAA = true
		s.Class = DNSResolves
		return s
	}

	ctx, cancel := context.WithTimeout(ctx, dnsTimeout)
	defer cancel()

	ips, err := r.LookupIP(ctx, "ip", s.Domain)
	if err == nil && len(ips) > 0 {
		s.HasAOrAAAA = true
		s.Class = DNSResolves
	} else if err != nil {
		var de *net.DNSError
		s.ResolverError = err.Error()
		if errors.As(err, &de) {
			if de.IsNotFound {
				s.Class = DNSNXDomain
			} else if de.IsTemporary || de.Timeout() {
				s.Class = DNSServFail
			}
		}
	}

	if cname, err := r.LookupCNAME(ctx, s.Domain); err == nil && !strings.EqualFold(cname, s.Domain+".") {
		s.CNAME = strings.TrimSuffix(cname, ".")
	}

	if ns, err := r.LookupNS(ctx, s.Domain); err == nil && len(ns) > 0 {
		s.HasNS = true
		if s.Class == DNSNXDomain {
			s.Class = DNSNoARecord
		}
	}

	if s.Class == "" {
		switch {
		case s.HasAOrAAAA:
			s.Class = DNSResolves
		case s.HasNS:
			s.Class = DNSNoARecord
		case s.ResolverError != "":
			s.Class = DNSServFail
		default:
			s.Class = DNSNXDomain
		}
	}
	return s
}

// DNSProber annotates error outcomes with the resolver classification of the
// target host. Other outcomes pass through untouched.
type DNSProber struct {
	Inner    Prober
	Resolver Resolver
}

func NewDNSProber(inner Prober) *DNSProber {
	return &DNSProber{Inner: inner, Resolver: net.DefaultResolver}
}

func (d *DNSProber) Probe(ctx context.Context, target string, timeout time.Duration) domain.ProbeResult {
	r := d.Inner.Probe(ctx, target, timeout)
	if r.Outcome != domain.OutcomeError || ctx.Err() != nil {
		return r
	}
	dns := CheckDNS(ctx, d.Resolver, extractHost(target))
	r.Detail = strings.TrimSpace(r.Detail + " dns=" + dns.Class)
	return r
}

func extractHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
