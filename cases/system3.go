package cases

// System3 三母线小系统：一台同步机、一台 IBR、两个负荷，用于快速校验
func System3() *Case {
	return &Case{
		SystemN:      3,
		Partitions:   1,
		Name:         "three-bus",
		BaseMVA:      100,
		Freq:         60,
		MeasureTf:    0.02,
		FaultCapable: true,
		Buses:        []Bus{{Num: 1}, {Num: 2}, {Num: 3}},
		Branches: []Branch{
			{From: 1, To: 2, R: 0.01, X: 0.1},
			{From: 2, To: 3, R: 0.01, X: 0.1},
			{From: 1, To: 3, R: 0.02, X: 0.2},
		},
		Generators: []Generator{
			{Bus: 1, H: 5, D: 2, Xd: 0.3, R: 0.05, Tg: 0.5, Eq: 1.1, Delta0: 0.2},
		},
		IBRs: []IBR{
			{Bus: 2, P: 0.2, Q: 0, Tf: 0.05, Kf: 20, Imax: 1.5},
		},
		Loads: []Load{
			{Bus: 2, P: 0.3, Q: 0.1, Tv: loadTv, Vmin: 0.7},
			{Bus: 3, P: 0.4, Q: 0.1, Tv: loadTv, Vmin: 0.7},
		},
	}
}
