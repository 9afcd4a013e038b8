package indicator

import "foodsecurity-charts/internal/domain/entity"

// MapRow is an observation with the shape used to draw it.
type MapRow struct {
	entity.Observation
	Geometry string
}

// AddGeometries left-joins shapes by iso_code; rows without a shape get an empty one.
func AddGeometries(obs []entity.Observation, geometries []entity.Geometry) []MapRow {
	shapes := make(map[string]string, len(geometries))
	for _, g := range geometries {
		if _, dup := shapes[g.ISOCode]; !dup {
			shapes[g.ISOCode] = g.Geometry
		}
	}
	out := make([]MapRow, len(obs))
	for i, o := range obs {
		out[i] = MapRow{Observation: o, Geometry: shapes[o.ISOCode]}
	}
	return out
}
