package config

func (c *Config) runJobs() {
	c.scheduler.Every(1).Minute().SingletonMode().Do(c.updateWatchParams)
	c.scheduler.Every(1).Minute().SingletonMode().Do(c.updateIPWhiteList)

	c.scheduler.StartAsync()
}

func (c *Config) updateWatchParams() {
	params, err := c.wdb.GetWatchParams()
	if err != nil {
		log.Error("refresh watch params", "err", err)
		return
	}
	c.locker.Lock()
	c.scanInterval = params.ScanInterval
	c.stalenessBlocks = params.StalenessBlocks
	c.maxAttempts = params.MaxAttempts
	c.locker.Unlock()
}

func (c *Config) updateIPWhiteList() {
	ips, err := c.wdb.GetAllAvailableIpRateWhitelist()
	if err != nil {
		log.Error("refresh ip whitelist", "err", err)
		return
	}
	ipWhiteList := make(map[string]struct{}, len(ips))
	for _, ip := range ips {
		if ip.Available {
			ipWhiteList[ip.OriginOrIP] = struct{}{}
		}
	}
	c.locker.Lock()
	c.ipWhiteList = ipWhiteList
	c.locker.Unlock()
}
