package rating

import "math"

const (
	glickoScale  = 173.7178 // converts between the public scale and mu/phi
	glickoCenter = 1500.0
	convergence  = 1e-6
	maxIter      = 100

	// DefaultTau constrains volatility change between periods.
	DefaultTau = 0.5
)

// Glicko2 implements Rater with Glickman's Glicko-2 algorithm.
// Each call to Rate is one rating period.
type Glicko2 struct {
	tau float64
}

// NewGlicko2 creates a Glicko-2 rater. Non-positive tau falls back to DefaultTau.
func NewGlicko2(tau float64) *Glicko2 {
	if tau <= 0 {
		tau = DefaultTau
	}
	return &Glicko2{tau: tau}
}

func toMuPhi(r, rd float64) (mu, phi float64) {
	return (r - glickoCenter) / glickoScale, rd / glickoScale
}

func fromMuPhi(mu, phi float64) (r, rd float64) {
	return mu*glickoScale + glickoCenter, phi * glickoScale
}

func g(phi float64) float64 {
	return 1 / math.Sqrt(1+3*phi*phi/(math.Pi*math.Pi))
}

func expected(mu, muj, phij float64) float64 {
	return 1 / (1 + math.Exp(-g(phij)*(mu-muj)))
}

// Rate applies one rating period. With no outcomes only the deviation grows.
func (r *Glicko2) Rate(current Estimate, outcomes []Outcome) Estimate {
	mu, phi := toMuPhi(current.Rating, current.RD)
	sigma := current.Volatility

	if len(outcomes) == 0 {
		_, rd := fromMuPhi(mu, math.Sqrt(phi*phi+sigma*sigma))
		return Estimate{Rating: current.Rating, RD: rd, Volatility: sigma}
	}

	var invV, sumScore float64
	for _, o := range outcomes {
		muj, phij := toMuPhi(o.OpponentRating, o.OpponentRD)
		gj := g(phij)
		e := expected(mu, muj, phij)
		invV += gj * gj * e * (1 - e)
		sumScore += gj * (o.Score - e)
	}
	v := 1 / invV
	delta := v * sumScore

	newSigma := r.volatility(phi, sigma, v, delta)

	phiStar := math.Sqrt(phi*phi + newSigma*newSigma)
	newPhi := 1 / math.Sqrt(1/(phiStar*phiStar)+1/v)
	newMu := mu + newPhi*newPhi*sumScore

	rating, rd := fromMuPhi(newMu, newPhi)
	return Estimate{Rating: rating, RD: rd, Volatility: newSigma}
}

// volatility solves for the new sigma with the Illinois variant of regula falsi.
func (r *Glicko2) volatility(phi, sigma, v, delta float64) float64 {
	a := math.Log(sigma * sigma)
	tau2 := r.tau * r.tau
	f := func(x float64) float64 {
		ex := math.Exp(x)
		d := phi*phi + v + ex
		return ex*(delta*delta-phi*phi-v-ex)/(2*d*d) - (x-a)/tau2
	}

	lo := a
	var hi float64
	if delta*delta > phi*phi+v {
		hi = math.Log(delta*delta - phi*phi - v)
	} else {
		k := 1.0
		for f(a-k*r.tau) < 0 && k < maxIter {
			k++
		}
		hi = a - k*r.tau
	}

	fLo, fHi := f(lo), f(hi)
	for i := 0; i < maxIter && math.Abs(hi-lo) > convergence; i++ {
		c := lo + (lo-hi)*fLo/(fHi-fLo)
		fC := f(c)
		if math.IsNaN(fC) || math.IsInf(fC, 0) {
			break
		}
		if fC*fHi <= 0 {
			lo, fLo = hi, fHi
		} else {
			fLo /= 2
		}
		hi, fHi = c, fC
	}

	return math.Exp(lo / 2)
}
