// Package geo 提供地理距离与路程时间估算。
package geo

import "math"

// EarthRadiusKm 地球平均半径（km）
const EarthRadiusKm = 6371.0

// MinutesPerKm 路程时间估算系数：每公里 12 分钟（市内步行+公交的粗略均值）。
const MinutesPerKm = 12.0

// Haversine 返回两点间的大圆距离（km）。
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// TravelMinutes 估算路程时间：round(km × 12)。
func TravelMinutes(km float64) int {
	if km <= 0 {
		return 0
	}
	return int(math.Round(km * MinutesPerKm))
}
