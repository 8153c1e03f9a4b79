package constants

import "time"

var CacheTTL = struct {
	HeroResponse time.Duration
}{
	HeroResponse: 60 * time.Minute, // 1시간 - 히어로 API 응답
}

var APIConfig = struct {
	SuperheroBaseURL string
	SuperheroTimeout time.Duration
	MaxBodyBytes     int64
}{
	SuperheroBaseURL: "https://superheroapi.com/api.php",
	SuperheroTimeout: 10 * time.Second,
	MaxBodyBytes:     1 << 20,
}

// 부트스트랩 시 가져오는 히어로 ID (설정으로 덮어쓸 수 있음)
var BootstrapHeroIDs = []int{200, 465}

var RedisConfig = struct {
	ReadyTimeout time.Duration
}{
	ReadyTimeout: 5 * time.Second,
}

var WebSocketConfig = struct {
	WriteTimeout     time.Duration
	PongTimeout      time.Duration
	PingInterval     time.Duration
	HandshakeTimeout time.Duration
	ReadLimit        int64
}{
	WriteTimeout:     10 * time.Second,
	PongTimeout:      60 * time.Second,
	PingInterval:     50 * time.Second, // PongTimeout 보다 짧아야 함
	HandshakeTimeout: 10 * time.Second,
	ReadLimit:        512,
}

var ServerConfig = struct {
	BuildTimeout      time.Duration
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	SnapshotTimeout   time.Duration
}{
	BuildTimeout:      30 * time.Second,
	ReadHeaderTimeout: 5 * time.Second,
	ShutdownTimeout:   10 * time.Second,
	SnapshotTimeout:   15 * time.Second,
}

var StringLimits = struct {
	LoggedBody int
}{
	LoggedBody: 200,
}
