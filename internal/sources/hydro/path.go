package hydro

import (
	"fmt"
	"strings"
)

const routingKeyFormat = "v02.post.hydrometric.csv.%s.hourly.#"

// ResourcePath is the hourly readings file for a station. It is also the text
// announced on the bus when that file is replaced.
func ResourcePath(province, station string) string {
	return fmt.Sprintf("/hydrometric/csv/%s/hourly/%s_%s_hourly_hydrometric.csv", province, province, station)
}

// ParseResourcePath reverses ResourcePath.
func ParseResourcePath(path string) (province, station string, err error) {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) != 5 || parts[0] != "hydrometric" || parts[1] != "csv" || parts[3] != "hourly" {
		return "", "", fmt.Errorf("not a hydrometric hourly path: %q", path)
	}
	province = parts[2]

	file := strings.TrimSuffix(parts[4], "_hourly_hydrometric.csv")
	if file == parts[4] || !strings.HasPrefix(file, province+"_") {
		return "", "", fmt.Errorf("not a hydrometric hourly path: %q", path)
	}
	station = strings.TrimPrefix(file, province+"_")
	if station == "" {
		return "", "", fmt.Errorf("missing station in %q", path)
	}
	return province, station, nil
}

// RoutingKey selects announcements for every hourly file in province.
func RoutingKey(province string) string {
	return fmt.Sprintf(routingKeyFormat, province)
}
