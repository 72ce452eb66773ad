package engine

// ComputeSizeProxies aggregates notional bases by product family. The proxies
// feed behavior scaling and the executive effects summary without re-running
// the full engine.
func ComputeSizeProxies(p Portfolio) SizeProxies {
	var sp SizeProxies
	for _, inst := range p.Instruments {
		n := inst.Notional
		if depositTypes[inst.Type] {
			sp.DepositBase += n
		}
		if wholesaleTypes[inst.Type] {
			sp.WholesaleBase += n
		}
		if irLinkedTypes[inst.Type] {
			sp.IRNotionals += n
		}
		if fxLinkedTypes[inst.Type] {
			sp.FXNotionals += n
		}
	}
	return sp
}
