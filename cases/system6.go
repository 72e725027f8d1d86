package cases

// 两区域四机系统（11 母线），100 MVA 基准。
// 发电机参数由 900 MVA 机组基准折算：H×9，Xd'/9，调差系数/9。
const (
	xfmrX  = 0.15 / 9 // 升压变压器电抗
	lineR  = 0.0001   // 每公里电阻
	lineX  = 0.001    // 每公里电抗
	lineB  = 0.00175  // 每公里充电电纳
	genXd  = 0.3 / 9
	genR   = 0.05 / 9
	genTg  = 0.5
	genD   = 18.0
	loadTv = 0.02
)

func line(from, to int, km float64) Branch {
	return Branch{From: from, To: to, R: lineR * km, X: lineX * km, B: lineB * km}
}

// System6 返回内置的两区域系统
func System6() *Case {
	c := &Case{
		SystemN:      6,
		Partitions:   1,
		Name:         "two-area",
		BaseMVA:      100,
		Freq:         60,
		MeasureTf:    0.02,
		FaultCapable: true,
	}
	for i := 1; i <= 11; i++ {
		c.Buses = append(c.Buses, Bus{Num: i})
	}
	// 负荷母线的并联电容
	c.Buses[6].Bsh = 2.0
	c.Buses[8].Bsh = 3.5

	c.Branches = []Branch{
		{From: 1, To: 5, X: xfmrX},
		{From: 2, To: 6, X: xfmrX},
		{From: 3, To: 11, X: xfmrX},
		{From: 4, To: 10, X: xfmrX},
		line(5, 6, 25),
		line(6, 7, 10),
		line(7, 8, 110),
		line(7, 8, 110),
		line(8, 9, 110),
		line(8, 9, 110),
		line(9, 10, 10),
		line(10, 11, 25),
	}
	c.Generators = []Generator{
		{Bus: 1, H: 58.5, D: genD, Xd: genXd, R: genR, Tg: genTg, Eq: 1.08, Delta0: 0.35},
		{Bus: 2, H: 58.5, D: genD, Xd: genXd, R: genR, Tg: genTg, Eq: 1.06, Delta0: 0.20},
		{Bus: 3, H: 55.575, D: genD, Xd: genXd, R: genR, Tg: genTg, Eq: 1.08, Delta0: 0.05},
		{Bus: 4, H: 55.575, D: genD, Xd: genXd, R: genR, Tg: genTg, Eq: 1.06, Delta0: 0.0},
	}
	c.IBRs = []IBR{
		{Bus: 6, P: 1.0, Q: 0, Tf: 0.05, Kf: 20, Imax: 1.5},
	}
	c.Loads = []Load{
		{Bus: 7, P: 9.67, Q: 1.0, Tv: loadTv, Vmin: 0.7},
		{Bus: 9, P: 17.67, Q: 1.0, Tv: loadTv, Vmin: 0.7},
	}
	return c
}
