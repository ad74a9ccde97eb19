package backtest

// portfolio tracks a long-only position with commission and stamp duty.
type portfolio struct {
	cash       float64
	shares     float64
	avgCost    float64
	realized   float64
	unrealized float64
	feeBps     float64
	stampBps   float64
}

// fill describes what actually executed after clipping.
type fill struct {
	shares   float64
	fee      float64
	realized float64
}

// apply executes an order at the given price. Sells beyond the open
// position are clipped; buys beyond available cash are clipped to what
// the cash covers after fees.
func (p *portfolio) apply(side Side, execPx, shares float64) fill {
	if shares <= 0 || execPx <= 0 {
		return fill{}
	}
	if side == SideBuy {
		// cost per share including commission
		unit := execPx * (1 + p.feeBps/10000.0)
		affordable := p.cash / unit
		if shares > affordable {
			shares = affordable
		}
		if shares <= 0 {
			return fill{}
		}
		fee := execPx * shares * (p.feeBps / 10000.0)
		total := p.shares + shares
		p.avgCost = (p.avgCost*p.shares + execPx*shares) / total
		p.shares = total
		p.cash -= execPx*shares + fee
		return fill{shares: shares, fee: fee}
	}

	if shares > p.shares {
		shares = p.shares
	}
	if shares <= 0 {
		return fill{}
	}
	fee := execPx * shares * ((p.feeBps + p.stampBps) / 10000.0)
	realized := (execPx-p.avgCost)*shares - fee
	p.shares -= shares
	if p.shares == 0 {
		p.avgCost = 0
	}
	p.cash += execPx*shares - fee
	p.realized += realized
	return fill{shares: shares, fee: fee, realized: realized}
}

func (p *portfolio) equity(lastPx float64) float64 {
	p.unrealized = 0
	if p.shares > 0 {
		p.unrealized = (lastPx - p.avgCost) * p.shares
	}
	return p.cash + p.unrealized
}
