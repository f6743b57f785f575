package chart

// Build runs the whole pipeline for one payload: aggregation,
// activity classification on the raw sums, then resampling and
// smoothing down to params.Width columns.
func Build(p Payload, specs []GraphSpec, params Params) (ChartData, error) {
	if !p.Usable() {
		return ChartData{}, ErrNoData
	}
	graphs, err := Aggregate(p.Series, specs)
	if err != nil {
		return ChartData{}, err
	}

	data := ChartData{
		Series:    graphs,
		TotalHits: p.TotalHits,
	}
	for i := range graphs {
		g := &graphs[i]
		// Activity is measured in raw intervals, so it must be
		// taken before the data is resampled.
		g.Activity = Classify(g.Data, params.HotPeriod, params.HotLevel)
		g.Data = Smooth(Resample(g.Data, params.Width), params.Smoothing)
		for _, v := range g.Data {
			data.Max = max(data.Max, v)
		}
	}
	data.Points = len(graphs[0].Data)
	data.StartSec, data.EndSec = timeSpan(p.Series)
	return data, nil
}

// timeSpan returns the first and last trimmed timestamps, in
// seconds, of the first series that has any.
func timeSpan(series []RawSeries) (float64, float64) {
	for _, s := range series {
		points := trimPartial(s.Data)
		if len(points) == 0 {
			continue
		}
		return float64(points[0].DateTime) / 1000,
			float64(points[len(points)-1].DateTime) / 1000
	}
	return 0, 0
}
