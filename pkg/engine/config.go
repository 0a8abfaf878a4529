package engine

// Config controls the engine's worker sizing.
type Config struct {
	DeliveryWorkers   int `env:"ENGINE_DELIVERY_WORKERS" envDefault:"8"`
	DispatchQueueSize int `env:"ENGINE_DISPATCH_QUEUE_SIZE" envDefault:"256"`
}

func (c Config) withDefaults() Config {
	if c.DeliveryWorkers < 1 {
		c.DeliveryWorkers = 8
	}
	if c.DispatchQueueSize < 1 {
		c.DispatchQueueSize = 256
	}
	return c
}
