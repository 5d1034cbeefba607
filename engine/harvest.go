package engine

import "math"

// Farming-end estimate bounds.
const (
	farmingEndMin     = 325
	farmingEndMax     = 365
	farmingDepleted   = 10
	regrowthRate      = 0.75
	harvestFloor      = 110
	harvestCeiling    = 450
	returnTripFactor  = 2.25
	farmingSafetyTurn = 9
)

// calculateHarvestThreshold returns the halite level at which farming cells
// may be harvested. It grows with the step and with own force superiority.
func (t *Turn) calculateHarvestThreshold() float64 {
	p := t.p
	perPoint := float64(len(t.me.Ships)) / float64(max(len(t.realFarming), 1))
	threshold := clip(float64(t.step)+70, 80, 480)
	advantage := p.HarvestThresholdBeta *
		clip(float64(t.shipAdvantage)+p.HarvestThresholdShipAdvantageNorm, 0, 1.5*p.HarvestThresholdShipAdvantageNorm) /
		p.HarvestThresholdShipAdvantageNorm
	hunting := clip(t.enemyHuntingShare, 0, p.HarvestThresholdHuntingNorm) / p.HarvestThresholdHuntingNorm
	threshold *= (1 - p.HarvestThresholdAlpha/2 + p.HarvestThresholdAlpha*(1-hunting)) *
		(1 - 2*p.HarvestThresholdBeta/3 + advantage)
	threshold = 0.95*threshold + 0.1*clip((perPoint-0.9)/1.1, 0, 1)
	return math.Trunc(clip(threshold, harvestFloor, harvestCeiling))
}

// estimateFarmingEnd predicts the last step at which farming cells can still
// be harvested and the halite brought home.
func (t *Turn) estimateFarmingEnd() int {
	var halite, returnDist float64
	for _, pos := range t.realFarming {
		halite += t.b.Halite[pos]
		returnDist += float64(t.shipyardDist[pos])
	}
	points := float64(max(len(t.realFarming), 1))
	avgHalite := halite / points
	avgReturn := returnDist / points

	var shipDist float64
	for _, s := range t.me.Ships {
		shipDist += float64(t.shipyardDist[s.Pos])
	}
	avgShipDist := shipDist / float64(max(len(t.me.Ships), 1))

	ships := int(float64(len(t.me.Ships)) * 0.6)
	perShip := float64(len(t.realFarming)) / float64(max(ships, 1))
	perPosition := math.Ceil(math.Log(farmingDepleted/math.Max(avgHalite, 1)) / math.Log(regrowthRate))
	steps := perShip * perPosition
	steps += math.Max(math.Ceil(2*perShip-2), 0) +
		math.Ceil(avgShipDist) +
		math.Ceil(returnTripFactor*avgReturn*math.Max(perShip, 1)) +
		float64(t.p.EndReturnExtraMoves) + farmingSafetyTurn
	end := float64(t.lastStep) - math.Ceil(steps)
	return int(clip(end, farmingEndMin, farmingEndMax))
}
