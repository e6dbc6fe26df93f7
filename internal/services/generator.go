package services

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"

	"github.com/AnshRaj112/profilefarm-backend/internal/config"
	"github.com/AnshRaj112/profilefarm-backend/internal/models"
	"github.com/google/uuid"
)

const (
	proxyTypeHTTP              = "HTTP"
	profileLanguage            = "en-US"
	profileDoNotTrack          = 0
	profileHardwareConcurrency = 4
)

// Supported operating systems, in the profile service's notation.
var profileOSes = []string{"win", "lin", "mac"}

type desktopAgent struct {
	userAgent string
	platform  string
	width     int
	height    int
}

var desktopAgents = map[string][]desktopAgent{
	"win": {
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36", "Win32", 1920, 1080},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36 Edg/123.0.2420.81", "Win32", 1366, 768},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0", "Win32", 1536, 864},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36", "Win32", 2560, 1440},
	},
	"lin": {
		{"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36", "Linux x86_64", 1920, 1080},
		{"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0", "Linux x86_64", 1600, 900},
		{"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36", "Linux x86_64", 1280, 1024},
	},
	"mac": {
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36", "MacIntel", 1440, 900},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4.1 Safari/605.1.15", "MacIntel", 2560, 1600},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 14.4; rv:125.0) Gecko/20100101 Firefox/125.0", "MacIntel", 1680, 1050},
	},
}

var loremWords = strings.Fields(`lorem ipsum dolor sit amet consectetur adipiscing elit sed do
eiusmod tempor incididunt ut labore et dolore magna aliqua enim ad minim veniam quis nostrud
exercitation ullamco laboris nisi aliquip ex ea commodo consequat duis aute irure in
reprehenderit voluptate velit esse cillum fugiat nulla pariatur excepteur sint occaecat`)

// Generator builds new profile records. It does not persist or register them.
type Generator struct {
	proxy config.ProxyConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator returns a generator using proxy for port-based profiles.
// A nil rng gets a randomly seeded source.
func NewGenerator(proxy config.ProxyConfig, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{proxy: proxy, rng: rng}
}

// Ready reports ErrMissingProxyConfig when port-based profiles cannot be built.
func (g *Generator) Ready() error {
	if !g.proxy.Complete() {
		return ErrMissingProxyConfig
	}
	return nil
}

// GenerateProfile builds a profile that routes through the configured proxy
// host on port.
func (g *Generator) GenerateProfile(port int) (*models.Profile, error) {
	if err := g.Ready(); err != nil {
		return nil, err
	}
	return g.build(models.NetworkProxy{
		Type:     proxyTypeHTTP,
		Host:     g.proxy.Host,
		Port:     strconv.Itoa(port),
		Username: g.proxy.Username,
		Password: g.proxy.Password,
	}), nil
}

// GenerateProfileForProxy builds a profile bound to a pool record.
func (g *Generator) GenerateProfileForProxy(p models.Proxy) *models.Profile {
	return g.build(models.NetworkProxy{
		Type:     proxyTypeHTTP,
		Host:     p.Host,
		Port:     strconv.Itoa(p.Port),
		Username: p.Username,
		Password: p.Password,
	})
}

func (g *Generator) build(network models.NetworkProxy) *models.Profile {
	g.mu.Lock()
	defer g.mu.Unlock()

	os := profileOSes[g.rng.IntN(len(profileOSes))]
	agents := desktopAgents[os]
	agent := agents[g.rng.IntN(len(agents))]

	return &models.Profile{
		Name:  g.name(),
		Notes: g.sentence(),
		Navigator: models.Navigator{
			UserAgent:           agent.userAgent,
			Resolution:          fmt.Sprintf("%dx%d", agent.width, agent.height),
			Language:            profileLanguage,
			Platform:            agent.platform,
			DoNotTrack:          profileDoNotTrack,
			HardwareConcurrency: profileHardwareConcurrency,
		},
		Network: models.Network{Proxy: network},
		OS:      os,
		Status:  models.ProfileStatusPending,
	}
}

func (g *Generator) name() string {
	id, err := uuid.NewRandomFromReader(rngReader{g.rng})
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (g *Generator) sentence() string {
	n := 5 + g.rng.IntN(8)
	words := make([]string, n)
	for i := range words {
		words[i] = loremWords[g.rng.IntN(len(loremWords))]
	}
	words[0] = strings.ToUpper(words[0][:1]) + words[0][1:]
	return strings.Join(words, " ") + "."
}

// rngReader adapts a math/rand source to io.Reader for uuid generation.
type rngReader struct {
	rng *rand.Rand
}

func (r rngReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.rng.Uint32())
	}
	return len(p), nil
}
