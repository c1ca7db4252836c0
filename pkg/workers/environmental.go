package workers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/propresearch/agentic-research-core/pkg/model"
	"github.com/propresearch/agentic-research-core/pkg/worker"
)

// noGeoResult is the uniform no-op response every hazard/GIS worker returns
// when the geocode worker never resolved coordinates.
func noGeoResult(field string, data map[string]interface{}) worker.Result {
	return worker.Result{
		Data:     data,
		Unknowns: []model.Unknown{{Field: field, Reason: "No geocode available for this lookup."}},
	}
}

func attrsOf(feature interface{}) map[string]interface{} {
	m, ok := feature.(map[string]interface{})
	if !ok {
		return nil
	}
	attrs, _ := m["attributes"].(map[string]interface{})
	return attrs
}

func featuresOf(resp map[string]interface{}, key string) []interface{} {
	if resp == nil {
		return nil
	}
	arr, _ := resp[key].([]interface{})
	return arr
}

func strAttr(attrs map[string]interface{}, key string) string {
	if attrs == nil {
		return ""
	}
	if v, ok := attrs[key]; ok && v != nil {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// FloodZone queries FEMA's National Flood Hazard Layer for the geocoded
// point.
func FloodZone(d Deps) worker.Worker {
	return worker.Func{
		WorkerName: "flood_zone",
		Fn: func(ctx context.Context, rt *worker.Runtime) (worker.Result, error) {
			data := map[string]interface{}{
				"flood_zone": map[string]interface{}{
					"flood_zone": nil, "description": nil, "panel_number": nil,
					"in_floodplain": nil, "insurance_required": nil,
					"source": "FEMA National Flood Hazard Layer",
				},
			}
			lat, lng, ok := geoFromContext(rt)
			if !ok || d.GIS == nil {
				return noGeoResult("flood_zone", data), nil
			}

			resp, err := d.GIS.Get(ctx, "https://hazards.fema.gov/arcgis/rest/services/public/NFHL/MapServer/28/query", map[string]string{
				"geometry": fmt.Sprintf("%f,%f", lng, lat), "geometryType": "esriGeometryPoint",
				"inSR": "4326", "spatialRel": "esriSpatialRelIntersects",
				"outFields":      "FLD_ZONE,ZONE_SUBTY,SFHA_TF,STATIC_BFE,DFIRM_ID",
				"returnGeometry": "false", "f": "json",
			})
			if err != nil {
				return worker.Result{Data: data, Errors: []string{err.Error()}, WebCalls: 1}, nil
			}

			flood := data["flood_zone"].(map[string]interface{})
			var evidence []model.EvidenceDraft
			features := featuresOf(resp, "features")
			if len(features) > 0 {
				attrs := attrsOf(features[0])
				zone := strAttr(attrs, "FLD_ZONE")
				highRisk := zone == "A" || zone == "AE" || zone == "AH" || zone == "AO" || zone == "AR" || zone == "V" || zone == "VE"
				desc := floodZoneDescriptions[zone]
				if desc == "" {
					desc = "Zone " + zone
				}
				flood["flood_zone"] = zone
				flood["description"] = desc
				flood["panel_number"] = strAttr(attrs, "DFIRM_ID")
				flood["in_floodplain"] = highRisk
				flood["insurance_required"] = highRisk
				evidence = append(evidence, model.EvidenceDraft{
					Category:   "flood_zone",
					Claim:      fmt.Sprintf("FEMA flood zone: %s - %s.", zone, desc),
					SourceURL:  fmt.Sprintf("https://msc.fema.gov/portal/search?AddressQuery=%f,%f", lat, lng),
					Confidence: 0.95,
				})
			} else {
				flood["flood_zone"] = "X"
				flood["description"] = "No FEMA data — likely minimal flood risk"
				flood["in_floodplain"] = false
				flood["insurance_required"] = false
				evidence = append(evidence, model.EvidenceDraft{
					Category:   "flood_zone",
					Claim:      "No FEMA flood zone data found for this location — likely minimal risk.",
					SourceURL:  fmt.Sprintf("https://msc.fema.gov/portal/search?AddressQuery=%f,%f", lat, lng),
					Confidence: 0.80,
				})
			}

			return worker.Result{Data: data, Evidence: evidence, WebCalls: 1}, nil
		},
	}
}

var floodZoneDescriptions = map[string]string{
	"A": "High risk - 1% annual chance flood (100-year floodplain)", "AE": "High risk - 1% annual chance flood with base flood elevations",
	"AH": "High risk - 1% annual chance of shallow flooding (1-3 ft)", "AO": "High risk - 1% annual chance of sheet flow flooding",
	"V": "High risk - coastal flood with wave action", "VE": "High risk - coastal flood with base flood elevations",
	"X": "Moderate to low risk - 0.2% annual chance flood (500-year) or minimal", "B": "Moderate risk - between 100-year and 500-year floodplain",
	"C": "Minimal risk - outside 500-year floodplain", "D": "Undetermined risk - possible but not analyzed",
}

// EPAEnvironmental checks EPA Superfund/brownfield/TRI/hazardous-waste
// layers within 5 miles.
func EPAEnvironmental(d Deps) worker.Worker {
	return worker.Func{
		WorkerName: "epa_environmental",
		Fn: func(ctx context.Context, rt *worker.Runtime) (worker.Result, error) {
			epaData := map[string]interface{}{
				"superfund_sites": []interface{}{}, "brownfields": []interface{}{},
				"toxic_releases": []interface{}{}, "hazardous_waste": []interface{}{},
				"nearest_hazard_miles": nil, "risk_summary": nil,
			}
			data := map[string]interface{}{"epa_environmental": epaData}

			lat, lng, ok := geoFromContext(rt)
			if !ok || d.GIS == nil {
				return noGeoResult("epa", data), nil
			}

			layers := []struct{ id, key, label string }{
				{"0", "superfund_sites", "Superfund (NPL) site"}, {"5", "brownfields", "Brownfield site"},
				{"1", "toxic_releases", "Toxic Release Inventory facility"}, {"4", "hazardous_waste", "Hazardous waste handler"},
			}
			baseParams := map[string]string{
				"geometry": fmt.Sprintf("%f,%f", lng, lat), "geometryType": "esriGeometryPoint",
				"inSR": "4326", "spatialRel": "esriSpatialRelIntersects", "distance": "8047", "units": "esriSRUnit_Meter",
				"outFields":      "primary_name,location_address,city_name,state_code,registry_id",
				"returnGeometry": "false", "f": "json",
			}

			var evidence []model.EvidenceDraft
			webCalls := 0
			total := 0
			for _, layer := range layers {
				resp, err := d.GIS.Get(ctx, "https://geopub.epa.gov/arcgis/rest/services/EMEF/efpoints/MapServer/"+layer.id+"/query", baseParams)
				webCalls++
				if err != nil {
					return worker.Result{Data: data, Errors: []string{err.Error()}, WebCalls: webCalls, Evidence: evidence}, nil
				}
				features := featuresOf(resp, "features")
				sites := epaData[layer.key].([]interface{})
				for i, feat := range features {
					if i >= 10 {
						break
					}
					attrs := attrsOf(feat)
					site := map[string]interface{}{
						"name": strAttr(attrs, "primary_name"), "address": strAttr(attrs, "location_address"),
						"city": strAttr(attrs, "city_name"), "state": strAttr(attrs, "state_code"),
					}
					sites = append(sites, site)
					total++
					evidence = append(evidence, model.EvidenceDraft{
						Category:   "environmental",
						Claim:      fmt.Sprintf("%s within 5 miles: %s", layer.label, site["name"]),
						SourceURL:  "https://enviro.epa.gov/enviro/epa_home.aspx",
						RawExcerpt: fmt.Sprintf("%s at %s, %s, %s", site["name"], site["address"], site["city"], site["state"]),
						Confidence: 0.95,
					})
				}
				epaData[layer.key] = sites
			}

			if total == 0 {
				epaData["risk_summary"] = "No EPA environmental hazards found within 5 miles"
			} else {
				epaData["risk_summary"] = fmt.Sprintf("WARNING: %d environmental hazard records within 5 miles", total)
			}

			return worker.Result{Data: data, Evidence: evidence, WebCalls: webCalls}, nil
		},
	}
}

// WildfireHazard checks the USFS wildfire hazard potential raster.
func WildfireHazard(d Deps) worker.Worker {
	return worker.Func{
		WorkerName: "wildfire_hazard",
		Fn: func(ctx context.Context, rt *worker.Runtime) (worker.Result, error) {
			data := map[string]interface{}{"wildfire_hazard": map[string]interface{}{"hazard_level": nil, "hazard_value": nil, "description": nil}}
			lat, lng, ok := geoFromContext(rt)
			if !ok || d.GIS == nil {
				return noGeoResult("wildfire", data), nil
			}

			resp, err := d.GIS.Get(ctx, "https://apps.fs.usda.gov/arcx/rest/services/RDW_Wildfire/RMRS_WildfireHazardPotential_2023/MapServer/identify", map[string]string{
				"geometry": fmt.Sprintf("%f,%f", lng, lat), "geometryType": "esriGeometryPoint", "sr": "4326", "tolerance": "1",
				"mapExtent":    fmt.Sprintf("%f,%f,%f,%f", lng-1, lat-1, lng+1, lat+1),
				"imageDisplay": "600,550,96", "returnGeometry": "false", "f": "json",
			})
			if err != nil {
				return worker.Result{Data: data, Errors: []string{err.Error()}, WebCalls: 1}, nil
			}

			wildfire := data["wildfire_hazard"].(map[string]interface{})
			var evidence []model.EvidenceDraft
			results := featuresOf(resp, "results")
			if len(results) > 0 {
				attrs := attrsOf(results[0])
				value := strAttr(attrs, "VALUE")
				level := wildfireLevels[value]
				if level == "" {
					level = strAttr(attrs, "class_desc")
				}
				wildfire["hazard_level"] = level
				if iv, err := strconv.Atoi(value); err == nil {
					wildfire["hazard_value"] = iv
				}
				isHigh := level == "High" || level == "Very High"
				desc := "Wildfire hazard: " + level
				if isHigh {
					desc += " — may affect insurance availability"
				}
				wildfire["description"] = desc
				evidence = append(evidence, model.EvidenceDraft{
					Category: "wildfire", Claim: "USFS wildfire hazard potential: " + level,
					SourceURL: "https://www.firelab.org/project/wildfire-hazard-potential", Confidence: 0.90,
				})
			} else {
				wildfire["hazard_level"] = "Unknown"
				wildfire["description"] = "No USFS wildfire data available for this location"
			}

			return worker.Result{Data: data, Evidence: evidence, WebCalls: 1}, nil
		},
	}
}

var wildfireLevels = map[string]string{"1": "Very Low", "2": "Low", "3": "Moderate", "4": "High", "5": "Very High", "6": "Non-burnable"}

// HUDOpportunity reads HUD's Affirmatively Furthering Fair Housing opportunity
// indices (school, jobs, poverty, transit, labor, environmental health).
func HUDOpportunity(d Deps) worker.Worker {
	return worker.Func{
		WorkerName: "hud_opportunity",
		Fn: func(ctx context.Context, rt *worker.Runtime) (worker.Result, error) {
			hud := map[string]interface{}{
				"school_proficiency_index": nil, "jobs_proximity_index": nil, "poverty_index": nil,
				"transit_index": nil, "labor_market_index": nil, "environmental_health_index": nil, "transportation_cost_index": nil,
			}
			data := map[string]interface{}{"hud_opportunity": hud}
			lat, lng, ok := geoFromContext(rt)
			if !ok || d.GIS == nil {
				return noGeoResult("hud", data), nil
			}

			base := map[string]string{
				"geometry": fmt.Sprintf("%f,%f", lng, lat), "geometryType": "esriGeometryPoint",
				"inSR": "4326", "spatialRel": "esriSpatialRelIntersects", "returnGeometry": "false", "f": "json",
			}
			webCalls := 0

			params1 := cloneWithField(base, "outFields", "SCHL_IDX,JOBS_IDX")
			resp1, err := d.GIS.Get(ctx, "https://egis.hud.gov/arcgis/rest/services/affht/AffhtMapService/MapServer/13/query", params1)
			webCalls++
			if err != nil {
				return worker.Result{Data: data, Errors: []string{err.Error()}, WebCalls: webCalls}, nil
			}
			if feats := featuresOf(resp1, "features"); len(feats) > 0 {
				attrs := attrsOf(feats[0])
				hud["school_proficiency_index"] = attrs["SCHL_IDX"]
				hud["jobs_proximity_index"] = attrs["JOBS_IDX"]
			}

			params2 := cloneWithField(base, "outFields", "POV_IDX,LBR_IDX,HAZ_IDX,TCOST_IDX,TRANS_IDX")
			resp2, err := d.GIS.Get(ctx, "https://egis.hud.gov/arcgis/rest/services/affht/AffhtMapService/MapServer/23/query", params2)
			webCalls++
			if err != nil {
				return worker.Result{Data: data, Errors: []string{err.Error()}, WebCalls: webCalls}, nil
			}
			if feats := featuresOf(resp2, "features"); len(feats) > 0 {
				attrs := attrsOf(feats[0])
				hud["poverty_index"] = attrs["POV_IDX"]
				hud["labor_market_index"] = attrs["LBR_IDX"]
				hud["environmental_health_index"] = attrs["HAZ_IDX"]
				hud["transportation_cost_index"] = attrs["TCOST_IDX"]
				hud["transit_index"] = attrs["TRANS_IDX"]
			}

			var evidence []model.EvidenceDraft
			hasAny := false
			for _, v := range hud {
				if v != nil {
					hasAny = true
					break
				}
			}
			if hasAny {
				evidence = append(evidence, model.EvidenceDraft{
					Category: "opportunity_index", Claim: "HUD Opportunity Indices retrieved for this tract/block group.",
					SourceURL: "https://egis.hud.gov/affht/", Confidence: 0.95,
				})
			}

			return worker.Result{Data: data, Evidence: evidence, WebCalls: webCalls}, nil
		},
	}
}

func cloneWithField(base map[string]string, key, value string) map[string]string {
	out := make(map[string]string, len(base)+1)
	for k, v := range base {
		out[k] = v
	}
	out[key] = value
	return out
}

// Wetlands checks the USFWS National Wetlands Inventory.
func Wetlands(d Deps) worker.Worker {
	return worker.Func{
		WorkerName: "wetlands",
		Fn: func(ctx context.Context, rt *worker.Runtime) (worker.Result, error) {
			wetlandsData := map[string]interface{}{"wetlands_found": false, "wetlands": []interface{}{}, "development_restricted": false}
			data := map[string]interface{}{"wetlands": wetlandsData}
			lat, lng, ok := geoFromContext(rt)
			if !ok || d.GIS == nil {
				return noGeoResult("wetlands", data), nil
			}

			resp, err := d.GIS.Get(ctx, "https://fwspublicservices.wim.usgs.gov/wetlandsmapservice/rest/services/Wetlands/MapServer/identify", map[string]string{
				"geometry": fmt.Sprintf("%f,%f", lng, lat), "geometryType": "esriGeometryPoint", "sr": "4326", "tolerance": "10",
				"mapExtent":    fmt.Sprintf("%f,%f,%f,%f", lng-0.01, lat-0.01, lng+0.01, lat+0.01),
				"imageDisplay": "600,550,96", "returnGeometry": "false", "f": "json",
			})
			if err != nil {
				return worker.Result{Data: data, Errors: []string{err.Error()}, WebCalls: 1}, nil
			}

			var evidence []model.EvidenceDraft
			results := featuresOf(resp, "results")
			wetlands := wetlandsData["wetlands"].([]interface{})
			for i, r := range results {
				if i >= 5 {
					break
				}
				attrs := attrsOf(r)
				w := map[string]interface{}{
					"type": strAttr(attrs, "WETLAND_TYPE"), "acres": attrs["ACRES"],
					"classification": strAttr(attrs, "ATTRIBUTE"), "system": strAttr(attrs, "SYSTEM_NAME"), "water_regime": strAttr(attrs, "WATER_REGIME_NAME"),
				}
				wetlands = append(wetlands, w)
				evidence = append(evidence, model.EvidenceDraft{
					Category:  "wetlands",
					Claim:     fmt.Sprintf("Wetland present: %s (%v acres, %s)", w["type"], w["acres"], w["system"]),
					SourceURL: "https://www.fws.gov/program/national-wetlands-inventory", Confidence: 0.90,
				})
			}
			wetlandsData["wetlands"] = wetlands
			if len(wetlands) > 0 {
				wetlandsData["wetlands_found"] = true
				wetlandsData["development_restricted"] = true
			}

			return worker.Result{Data: data, Evidence: evidence, WebCalls: 1}, nil
		},
	}
}

// HistoricPlaces checks the National Register of Historic Places within 1
// mile.
func HistoricPlaces(d Deps) worker.Worker {
	return worker.Func{
		WorkerName: "historic_places",
		Fn: func(ctx context.Context, rt *worker.Runtime) (worker.Result, error) {
			historic := map[string]interface{}{
				"in_historic_district": false, "nearby_places": []interface{}{},
				"renovation_restricted": false, "tax_credit_eligible": false,
			}
			data := map[string]interface{}{"historic_places": historic}
			lat, lng, ok := geoFromContext(rt)
			if !ok || d.GIS == nil {
				return noGeoResult("historic", data), nil
			}

			resp, err := d.GIS.Get(ctx, "https://mapservices.nps.gov/arcgis/rest/services/cultural_resources/nrhp_locations/MapServer/0/query", map[string]string{
				"geometry": fmt.Sprintf("%f,%f", lng, lat), "geometryType": "esriGeometryPoint", "inSR": "4326",
				"spatialRel": "esriSpatialRelIntersects", "distance": "1609", "units": "esriSRUnit_Meter",
				"outFields": "RESNAME,ResType,Address,City,State,County,Is_NHL", "returnGeometry": "false", "f": "json",
			})
			if err != nil {
				return worker.Result{Data: data, Errors: []string{err.Error()}, WebCalls: 1}, nil
			}

			var evidence []model.EvidenceDraft
			features := featuresOf(resp, "features")
			places := historic["nearby_places"].([]interface{})
			for i, feat := range features {
				if i >= 10 {
					break
				}
				attrs := attrsOf(feat)
				isLandmark := strAttr(attrs, "Is_NHL") == "Y"
				place := map[string]interface{}{
					"name": strAttr(attrs, "RESNAME"), "type": strAttr(attrs, "ResType"),
					"address": strAttr(attrs, "Address"), "city": strAttr(attrs, "City"), "state": strAttr(attrs, "State"),
					"is_landmark": isLandmark,
				}
				places = append(places, place)
				if place["type"] == "district" {
					historic["in_historic_district"] = true
					historic["renovation_restricted"] = true
					historic["tax_credit_eligible"] = true
				}
				claim := fmt.Sprintf("National Register: %s (%s) within 1 mile", place["name"], place["type"])
				if isLandmark {
					claim += " — National Historic Landmark"
				}
				evidence = append(evidence, model.EvidenceDraft{
					Category: "historic", Claim: claim,
					SourceURL: "https://www.nps.gov/subjects/nationalregister/database-research.htm", Confidence: 0.95,
				})
			}
			historic["nearby_places"] = places

			return worker.Result{Data: data, Evidence: evidence, WebCalls: 1}, nil
		},
	}
}

// SeismicHazard checks USGS peak ground acceleration and nearby quaternary
// faults.
func SeismicHazard(d Deps) worker.Worker {
	return worker.Func{
		WorkerName: "seismic_hazard",
		Fn: func(ctx context.Context, rt *worker.Runtime) (worker.Result, error) {
			seismic := map[string]interface{}{"peak_ground_acceleration": nil, "seismic_risk_level": nil, "nearby_faults": []interface{}{}, "description": nil}
			data := map[string]interface{}{"seismic_hazard": seismic}
			lat, lng, ok := geoFromContext(rt)
			if !ok || d.GIS == nil {
				return noGeoResult("seismic", data), nil
			}

			webCalls := 0
			var evidence []model.EvidenceDraft

			resp1, err := d.GIS.Get(ctx, "https://earthquake.usgs.gov/arcgis/rest/services/haz/USpga250_2014/MapServer/identify", map[string]string{
				"geometry": fmt.Sprintf("%f,%f", lng, lat), "geometryType": "esriGeometryPoint", "sr": "4326", "tolerance": "1",
				"mapExtent":    fmt.Sprintf("%f,%f,%f,%f", lng-5, lat-5, lng+5, lat+5),
				"imageDisplay": "600,550,96", "returnGeometry": "false", "f": "json",
			})
			webCalls++
			if err != nil {
				return worker.Result{Data: data, Errors: []string{err.Error()}, WebCalls: webCalls}, nil
			}
			if results := featuresOf(resp1, "results"); len(results) > 0 {
				attrs := attrsOf(results[0])
				pgaStr := strAttr(attrs, "ACC_VAL")
				if pga, perr := strconv.ParseFloat(pgaStr, 64); perr == nil {
					seismic["peak_ground_acceleration"] = pga
					level := "Low"
					if pga >= 60 {
						level = "High"
					} else if pga >= 20 {
						level = "Moderate"
					}
					seismic["seismic_risk_level"] = level
					seismic["description"] = fmt.Sprintf("Peak ground acceleration: %v%%g (%s risk)", pga, level)
					evidence = append(evidence, model.EvidenceDraft{
						Category: "seismic", Claim: fmt.Sprintf("USGS seismic hazard: PGA=%v%%g — %s risk", pga, level),
						SourceURL: "https://earthquake.usgs.gov/hazards/hazmaps/", Confidence: 0.90,
					})
				}
			}

			resp2, err := d.GIS.Get(ctx, "https://earthquake.usgs.gov/arcgis/rest/services/haz/Qfaults/MapServer/21/query", map[string]string{
				"geometry": fmt.Sprintf("%f,%f", lng, lat), "geometryType": "esriGeometryPoint", "inSR": "4326",
				"spatialRel": "esriSpatialRelIntersects", "distance": "16093", "units": "esriSRUnit_Meter",
				"outFields": "fault_name,section_name,age,slip_rate,slip_sense", "returnGeometry": "false", "f": "json",
			})
			webCalls++
			if err != nil {
				return worker.Result{Data: data, Errors: []string{err.Error()}, WebCalls: webCalls, Evidence: evidence}, nil
			}
			faults := seismic["nearby_faults"].([]interface{})
			for i, feat := range featuresOf(resp2, "features") {
				if i >= 5 {
					break
				}
				attrs := attrsOf(feat)
				fault := map[string]interface{}{
					"name": strAttr(attrs, "fault_name"), "section": strAttr(attrs, "section_name"),
					"age": strAttr(attrs, "age"), "slip_rate": strAttr(attrs, "slip_rate"),
				}
				faults = append(faults, fault)
				evidence = append(evidence, model.EvidenceDraft{
					Category: "seismic", Claim: "Quaternary fault within 10 miles: " + fmt.Sprintf("%v", fault["name"]),
					SourceURL: "https://earthquake.usgs.gov/hazards/qfaults/", Confidence: 0.90,
				})
			}
			seismic["nearby_faults"] = faults

			return worker.Result{Data: data, Evidence: evidence, WebCalls: webCalls}, nil
		},
	}
}

// SchoolDistrict resolves the Census school district and tract GEOID for
// the geocoded point.
func SchoolDistrict(d Deps) worker.Worker {
	return worker.Func{
		WorkerName: "school_district",
		Fn: func(ctx context.Context, rt *worker.Runtime) (worker.Result, error) {
			district := map[string]interface{}{"school_district": nil, "district_geoid": nil, "census_tract_geoid": nil}
			data := map[string]interface{}{"school_district": district}
			lat, lng, ok := geoFromContext(rt)
			if !ok || d.GIS == nil {
				return noGeoResult("school_district", data), nil
			}

			base := map[string]string{
				"geometry": fmt.Sprintf("%f,%f", lng, lat), "geometryType": "esriGeometryPoint",
				"inSR": "4326", "spatialRel": "esriSpatialRelIntersects", "returnGeometry": "false", "f": "json",
			}
			webCalls := 0
			var evidence []model.EvidenceDraft

			resp1, err := d.GIS.Get(ctx, "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/School/MapServer/0/query",
				cloneWithField(base, "outFields", "NAME,BASENAME,GEOID,LOGRADE,HIGRADE"))
			webCalls++
			if err != nil {
				return worker.Result{Data: data, Errors: []string{err.Error()}, WebCalls: webCalls}, nil
			}
			if feats := featuresOf(resp1, "features"); len(feats) > 0 {
				attrs := attrsOf(feats[0])
				name := strAttr(attrs, "NAME")
				if name == "" {
					name = strAttr(attrs, "BASENAME")
				}
				district["school_district"] = name
				district["district_geoid"] = strAttr(attrs, "GEOID")
				evidence = append(evidence, model.EvidenceDraft{
					Category: "school_district", Claim: fmt.Sprintf("School district: %s (GEOID: %s)", name, district["district_geoid"]),
					SourceURL: "https://www.census.gov/programs-surveys/school-districts.html", Confidence: 0.95,
				})
			}

			resp2, err := d.GIS.Get(ctx, "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/tigerWMS_ACS2021/MapServer/14/query",
				cloneWithField(base, "outFields", "GEOID,NAME,STATE,COUNTY,TRACT"))
			webCalls++
			if err != nil {
				return worker.Result{Data: data, Errors: []string{err.Error()}, WebCalls: webCalls, Evidence: evidence}, nil
			}
			if feats := featuresOf(resp2, "features"); len(feats) > 0 {
				district["census_tract_geoid"] = strAttr(attrsOf(feats[0]), "GEOID")
			}

			return worker.Result{Data: data, Evidence: evidence, WebCalls: webCalls}, nil
		},
	}
}
