package market

// Config controls the Redis tick feed. The channel name for an
// instrument is ChannelPrefix + instrument id, e.g. "ticks:BTC-USD".
type Config struct {
	ChannelPrefix string `env:"MARKET_TICK_CHANNEL_PREFIX" envDefault:"ticks:"`
	BufferSize    int    `env:"MARKET_TICK_BUFFER_SIZE" envDefault:"64"`
}
