package catalog

import (
	"context"
	"fmt"
	"math"
)

// Argument accessors. Validation has already run; these only coerce.

func stringArg(args map[string]any, name string) (string, bool) {
	s, ok := args[name].(string)
	return s, ok
}

func floatArg(args map[string]any, name string) (float64, bool) {
	v, ok := args[name]
	if !ok {
		return 0, false
	}
	return asFloat(v)
}

func intArg(args map[string]any, name string) (int64, bool) {
	f, ok := floatArg(args, name)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

func boolArg(args map[string]any, name string) (bool, bool) {
	b, ok := args[name].(bool)
	return b, ok
}

// activePriceFilter keeps only prices approved and in effect today.
const activePriceFilter = ` AND sp.status = 'APPROVED'
	AND sp.effective_date <= date('now')
	AND (sp.end_date IS NULL OR sp.end_date >= date('now'))`

func operations() []*Operation {
	return []*Operation{
		{
			Name: "get_service_types",
			Description: "Lấy danh sách các loại dịch vụ/phí trong hệ thống quản lý chung cư. " +
				"Dùng khi user hỏi: có những loại phí nào, danh sách dịch vụ, phí quản lý là gì.",
			Params: []Param{
				{Name: "category", Type: "string",
					Enum:        []string{"Utility", "Fee", "Service", "Maintenance", "Other"},
					Description: "Lọc theo danh mục: Utility (điện, nước), Fee (các loại phí), Service (dịch vụ bổ sung), Maintenance (bảo trì), Other (khác)"},
			},
			handler: handleServiceTypes,
		},
		{
			Name: "get_service_prices",
			Description: "Lấy bảng giá của các dịch vụ/phí hiện đang áp dụng. " +
				"Dùng khi user hỏi: giá, bảng giá, phí bao nhiêu, mức phí.",
			Params: []Param{
				{Name: "service_type_code", Type: "string",
					Description: "Mã dịch vụ: MGMT_FEE (phí quản lý), PARKING_CAR (gửi xe ô tô), PARKING_BIKE (gửi xe máy), INTERNET, ADMIN_FEE"},
				{Name: "active_only", Type: "boolean",
					Description: "True: chỉ lấy giá đang áp dụng hiện tại. False: lấy cả giá cũ"},
			},
			handler: handleServicePrices,
		},
		{
			Name: "calculate_service_fee",
			Description: "Tính tổng chi phí cho một dịch vụ dựa trên số lượng. " +
				"Dùng khi user hỏi: tính phí, tổng phí, cần đóng bao nhiêu, kèm số lượng (diện tích m2, số xe, số tháng).",
			Params: []Param{
				{Name: "service_code", Type: "string", Required: true,
					Description: "Mã dịch vụ cần tính: MGMT_FEE, PARKING_CAR, PARKING_BIKE, INTERNET, ADMIN_FEE"},
				{Name: "quantity", Type: "number",
					Description: "Số lượng cần tính (diện tích m2, số xe, số tháng...). Mặc định là 1"},
			},
			handler: handleCalculateServiceFee,
		},
		{
			Name: "get_service_categories",
			Description: "Lấy danh sách các nhóm phân loại dịch vụ/phí. " +
				"Dùng khi user hỏi: phân loại, nhóm dịch vụ, chia thành mấy loại.",
			handler: handleServiceCategories,
		},
		{
			Name: "get_amenities",
			Description: "Lấy danh sách các tiện ích trong chung cư (gym, hồ bơi, phòng họp...). " +
				"Dùng khi user hỏi: có tiện ích gì, facilities, danh sách tiện ích.",
			Params: []Param{
				{Name: "category_name", Type: "string",
					Description: "Lọc theo loại tiện ích (Gym, Pool, Meeting Room, Tennis Court...)"},
				{Name: "status", Type: "string",
					Enum:        []string{"ACTIVE", "INACTIVE", "MAINTENANCE"},
					Description: "Trạng thái tiện ích. Mặc định là ACTIVE"},
				{Name: "has_monthly_package", Type: "boolean",
					Description: "True: chỉ lấy tiện ích có gói tháng. False: không có gói tháng"},
			},
			handler: handleAmenities,
		},
		{
			Name: "get_amenity_by_code",
			Description: "Lấy thông tin chi tiết về một tiện ích cụ thể. " +
				"Dùng khi user hỏi: thông tin về gym, hồ bơi ở đâu, chi tiết phòng họp.",
			Params: []Param{
				{Name: "code", Type: "string", Required: true,
					Description: "Mã tiện ích cần xem (GYM_01, POOL_01, MEETING_01...)"},
			},
			handler: handleAmenityByCode,
		},
		{
			Name: "get_amenity_packages",
			Description: "Lấy danh sách các gói đăng ký theo tháng cho tiện ích. " +
				"Dùng khi user hỏi: gói tháng, monthly package, giá gói, đăng ký gym bao nhiêu tiền.",
			Params: []Param{
				{Name: "amenity_code", Type: "string",
					Description: "Mã tiện ích cần xem gói (GYM_01, POOL_01...)"},
				{Name: "status", Type: "string",
					Enum:        []string{"ACTIVE", "INACTIVE"},
					Description: "Trạng thái gói. Mặc định là ACTIVE"},
			},
			handler: handleAmenityPackages,
		},
		{
			Name: "calculate_amenity_package_price",
			Description: "Tính giá gói đăng ký tiện ích theo số tháng. " +
				"Dùng khi user hỏi: tính tiền đăng ký gym 6 tháng, gói 3 tháng hồ bơi giá bao nhiêu.",
			Params: []Param{
				{Name: "amenity_code", Type: "string", Required: true,
					Description: "Mã tiện ích (GYM_01, POOL_01, MEETING_01...)"},
				{Name: "month_count", Type: "integer", Required: true,
					Description: "Số tháng đăng ký (1, 3, 6, 12...)"},
			},
			handler: handleCalculatePackagePrice,
		},
		{
			Name: "get_floors",
			Description: "Lấy danh sách các tầng trong toà nhà. " +
				"Dùng khi user hỏi: có bao nhiêu tầng, danh sách tầng.",
			handler: handleFloors,
		},
		{
			Name: "get_apartments",
			Description: "Lấy danh sách căn hộ với các bộ lọc theo tầng, trạng thái, loại, số phòng ngủ, diện tích. " +
				"Dùng khi user hỏi: căn hộ, tìm căn hộ, căn 2 phòng ngủ ở tầng 5.",
			Params: []Param{
				{Name: "floor_number", Type: "integer", Description: "Số tầng (1, 2, 3...)"},
				{Name: "status", Type: "string",
					Enum:        []string{"AVAILABLE", "OCCUPIED", "RESERVED", "MAINTENANCE"},
					Description: "Trạng thái: AVAILABLE (còn trống), OCCUPIED (đã thuê), RESERVED (đã đặt), MAINTENANCE (bảo trì)"},
				{Name: "apartment_type", Type: "string", Description: "Loại căn hộ: Studio, 1BR, 2BR, 3BR, Penthouse..."},
				{Name: "min_bedrooms", Type: "integer", Description: "Số phòng ngủ tối thiểu"},
				{Name: "max_bedrooms", Type: "integer", Description: "Số phòng ngủ tối đa"},
				{Name: "min_area", Type: "number", Description: "Diện tích tối thiểu (m2)"},
				{Name: "max_area", Type: "number", Description: "Diện tích tối đa (m2)"},
			},
			handler: handleApartments,
		},
		{
			Name: "get_apartment_by_number",
			Description: "Lấy thông tin chi tiết về một căn hộ cụ thể theo số căn. " +
				"Dùng khi user hỏi: căn 101, thông tin căn hộ số X.",
			Params: []Param{
				{Name: "apartment_number", Type: "string", Required: true,
					Description: "Số căn hộ (ví dụ: '101', 'A-1203', '2B-05')"},
			},
			handler: handleApartmentByNumber,
		},
		{
			Name: "get_available_apartments",
			Description: "Lấy danh sách căn hộ còn trống (AVAILABLE). " +
				"Dùng khi user hỏi: căn hộ còn trống, có căn nào trống.",
			Params: []Param{
				{Name: "apartment_type", Type: "string", Description: "Loại căn hộ: Studio, 1BR, 2BR, 3BR..."},
				{Name: "min_bedrooms", Type: "integer", Description: "Số phòng ngủ tối thiểu"},
			},
			handler: handleAvailableApartments,
		},
		{
			Name: "get_apartment_statistics",
			Description: "Lấy thống kê tổng quan về căn hộ trong toà nhà. " +
				"Dùng khi user hỏi: thống kê, tổng quan, có bao nhiêu căn.",
			handler: handleApartmentStatistics,
		},
	}
}

// ---- service fees ----

func handleServiceTypes(ctx context.Context, c *Catalog, args map[string]any) map[string]any {
	query := `SELECT
		st.service_type_id, st.code, st.name, st.unit,
		st.is_mandatory, st.is_recurring, st.is_active,
		c.name AS category_name
	FROM {schema}.service_types st
	LEFT JOIN {schema}.service_type_categories c ON st.category_id = c.category_id
	WHERE st.is_active = 1 AND st.is_delete = 0`
	var params []any

	if category, ok := stringArg(args, "category"); ok {
		query += " AND c.name = ?"
		params = append(params, category)
	}
	query += " ORDER BY st.name"

	rows, err := c.store.Query(ctx, query, params...)
	if err != nil {
		return errEnvelope(err.Error())
	}
	return listEnvelope(rows)
}

func handleServicePrices(ctx context.Context, c *Catalog, args map[string]any) map[string]any {
	query := `SELECT
		st.code AS service_code, st.name AS service_name, st.unit,
		sp.unit_price, sp.effective_date, sp.end_date, sp.status
	FROM {schema}.service_prices sp
	INNER JOIN {schema}.service_types st ON sp.service_type_id = st.service_type_id
	WHERE 1=1`
	var params []any

	if code, ok := stringArg(args, "service_type_code"); ok {
		query += " AND st.code = ?"
		params = append(params, code)
	}

	activeOnly := true
	if v, ok := boolArg(args, "active_only"); ok {
		activeOnly = v
	}
	if activeOnly {
		query += activePriceFilter
	}
	query += " ORDER BY st.name, sp.effective_date DESC"

	rows, err := c.store.Query(ctx, query, params...)
	if err != nil {
		return errEnvelope(err.Error())
	}
	for _, row := range rows {
		if price, ok := asFloat(row["unit_price"]); ok {
			row["unit_price_formatted"] = formatVND(price)
		}
	}
	return listEnvelope(rows)
}

func handleCalculateServiceFee(ctx context.Context, c *Catalog, args map[string]any) map[string]any {
	code, _ := stringArg(args, "service_code")
	quantity := 1.0
	if q, ok := floatArg(args, "quantity"); ok {
		quantity = q
	}

	query := `SELECT st.code, st.name, st.unit, sp.unit_price
	FROM {schema}.service_prices sp
	INNER JOIN {schema}.service_types st ON sp.service_type_id = st.service_type_id
	WHERE st.code = ?` + activePriceFilter + `
	ORDER BY sp.effective_date DESC
	LIMIT 1`

	rows, err := c.store.Query(ctx, query, code)
	if err != nil {
		return errEnvelope(err.Error())
	}
	if len(rows) == 0 {
		return errEnvelope(fmt.Sprintf("Không tìm thấy dịch vụ với mã: %s", code))
	}

	service := rows[0]
	unitPrice, _ := asFloat(service["unit_price"])
	total := unitPrice * quantity

	return itemEnvelope(map[string]any{
		"service_code":         service["code"],
		"service_name":         service["name"],
		"unit":                 service["unit"],
		"unit_price":           unitPrice,
		"unit_price_formatted": formatVND(unitPrice),
		"quantity":             quantity,
		"total":                total,
		"total_formatted":      formatVND(total),
	})
}

func handleServiceCategories(ctx context.Context, c *Catalog, _ map[string]any) map[string]any {
	rows, err := c.store.Query(ctx, `SELECT category_id, name, description
		FROM {schema}.service_type_categories ORDER BY name`)
	if err != nil {
		return errEnvelope(err.Error())
	}
	return listEnvelope(rows)
}

// ---- amenities ----

const amenityColumns = `amenity_id, code, name, category_name, location,
	has_monthly_package, fee_type, status, requires_face_verification, asset_id`

func handleAmenities(ctx context.Context, c *Catalog, args map[string]any) map[string]any {
	query := "SELECT " + amenityColumns + " FROM {schema}.amenities WHERE is_delete = 0"
	var params []any

	if category, ok := stringArg(args, "category_name"); ok {
		query += " AND category_name = ?"
		params = append(params, category)
	}

	status := "ACTIVE"
	if s, ok := stringArg(args, "status"); ok {
		status = s
	}
	query += " AND status = ?"
	params = append(params, status)

	if monthly, ok := boolArg(args, "has_monthly_package"); ok {
		query += " AND has_monthly_package = ?"
		if monthly {
			params = append(params, 1)
		} else {
			params = append(params, 0)
		}
	}
	query += " ORDER BY category_name, name"

	rows, err := c.store.Query(ctx, query, params...)
	if err != nil {
		return errEnvelope(err.Error())
	}

	// Annotate each packaged amenity with its cheapest active package.
	for _, amenity := range rows {
		amenity["cheapest_package"] = nil
		amenity["total_packages"] = 0
		if flag, ok := asFloat(amenity["has_monthly_package"]); !ok || flag == 0 {
			continue
		}
		code, _ := amenity["code"].(string)
		packages, err := c.fetchPackages(ctx, code, "ACTIVE")
		if err != nil || len(packages) == 0 {
			continue
		}
		cheapest := packages[0]
		for _, p := range packages[1:] {
			pPrice, _ := asFloat(p["price"])
			cPrice, _ := asFloat(cheapest["price"])
			if pPrice < cPrice {
				cheapest = p
			}
		}
		amenity["cheapest_package"] = map[string]any{
			"name":            cheapest["package_name"],
			"price":           cheapest["price"],
			"price_formatted": cheapest["price_formatted"],
			"month_count":     cheapest["month_count"],
		}
		amenity["total_packages"] = len(packages)
	}
	return listEnvelope(rows)
}

func handleAmenityByCode(ctx context.Context, c *Catalog, args map[string]any) map[string]any {
	code, _ := stringArg(args, "code")

	rows, err := c.store.Query(ctx,
		"SELECT "+amenityColumns+" FROM {schema}.amenities WHERE code = ? AND is_delete = 0", code)
	if err != nil {
		return errEnvelope(err.Error())
	}
	if len(rows) == 0 {
		return errEnvelope(fmt.Sprintf("Không tìm thấy tiện ích với mã: %s", code))
	}

	amenity := rows[0]
	amenity["packages"] = []map[string]any{}
	amenity["package_count"] = 0
	if flag, ok := asFloat(amenity["has_monthly_package"]); ok && flag != 0 {
		if packages, err := c.fetchPackages(ctx, code, "ACTIVE"); err == nil {
			amenity["packages"] = packages
			amenity["package_count"] = len(packages)
		}
	}
	return itemEnvelope(amenity)
}

func handleAmenityPackages(ctx context.Context, c *Catalog, args map[string]any) map[string]any {
	amenityCode, _ := stringArg(args, "amenity_code")
	status := "ACTIVE"
	if s, ok := stringArg(args, "status"); ok {
		status = s
	}

	packages, err := c.fetchPackages(ctx, amenityCode, status)
	if err != nil {
		return errEnvelope(err.Error())
	}
	return listEnvelope(packages)
}

// fetchPackages lists amenity packages, optionally filtered by amenity
// code and status, with formatted prices.
func (c *Catalog) fetchPackages(ctx context.Context, amenityCode, status string) ([]map[string]any, error) {
	query := `SELECT
		ap.package_id, ap.amenity_id,
		a.code AS amenity_code, a.name AS amenity_name,
		ap.name AS package_name, ap.month_count, ap.price,
		ap.description, ap.status, ap.duration_days, ap.period_unit
	FROM {schema}.amenity_packages ap
	INNER JOIN {schema}.amenities a ON ap.amenity_id = a.amenity_id
	WHERE 1=1`
	var params []any

	if amenityCode != "" {
		query += " AND a.code = ?"
		params = append(params, amenityCode)
	}
	if status != "" {
		query += " AND ap.status = ?"
		params = append(params, status)
	}
	query += " ORDER BY a.name, ap.month_count"

	rows, err := c.store.Query(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if price, ok := asFloat(row["price"]); ok {
			row["price_formatted"] = formatVND(price)
		}
	}
	return rows, nil
}

func handleCalculatePackagePrice(ctx context.Context, c *Catalog, args map[string]any) map[string]any {
	amenityCode, _ := stringArg(args, "amenity_code")
	monthCount, _ := intArg(args, "month_count")

	query := `SELECT
		a.code, a.name AS amenity_name, ap.name AS package_name,
		ap.month_count, ap.price, ap.duration_days, ap.period_unit
	FROM {schema}.amenity_packages ap
	INNER JOIN {schema}.amenities a ON ap.amenity_id = a.amenity_id
	WHERE a.code = ? AND ap.month_count = ? AND ap.status = 'ACTIVE'
	ORDER BY ap.price ASC
	LIMIT 1`

	rows, err := c.store.Query(ctx, query, amenityCode, monthCount)
	if err != nil {
		return errEnvelope(err.Error())
	}
	if len(rows) == 0 {
		return errEnvelope(fmt.Sprintf("Không tìm thấy gói %d tháng cho tiện ích %s", monthCount, amenityCode))
	}

	pkg := rows[0]
	price, _ := asFloat(pkg["price"])

	return itemEnvelope(map[string]any{
		"amenity_code":    pkg["code"],
		"amenity_name":    pkg["amenity_name"],
		"package_name":    pkg["package_name"],
		"month_count":     pkg["month_count"],
		"duration_days":   pkg["duration_days"],
		"period_unit":     pkg["period_unit"],
		"price":           price,
		"price_formatted": formatVND(price),
	})
}

// ---- apartments & floors ----

func handleFloors(ctx context.Context, c *Catalog, _ map[string]any) map[string]any {
	rows, err := c.store.Query(ctx,
		"SELECT floor_id, floor_number, name FROM {schema}.floors ORDER BY floor_number")
	if err != nil {
		return errEnvelope(err.Error())
	}
	return listEnvelope(rows)
}

func handleApartments(ctx context.Context, c *Catalog, args map[string]any) map[string]any {
	query := `SELECT
		a.apartment_id, a.floor_id, f.floor_number, f.name AS floor_name,
		a.number AS apartment_number, a.area_m2, a.bedrooms,
		a.status, a.type, a.created_at, a.updated_at
	FROM {schema}.apartments a
	INNER JOIN {schema}.floors f ON a.floor_id = f.floor_id
	WHERE 1=1`
	var params []any

	if floor, ok := intArg(args, "floor_number"); ok {
		query += " AND f.floor_number = ?"
		params = append(params, floor)
	}
	if status, ok := stringArg(args, "status"); ok {
		query += " AND a.status = ?"
		params = append(params, status)
	}
	if aptType, ok := stringArg(args, "apartment_type"); ok {
		query += " AND a.type = ?"
		params = append(params, aptType)
	}
	if min, ok := intArg(args, "min_bedrooms"); ok {
		query += " AND a.bedrooms >= ?"
		params = append(params, min)
	}
	if max, ok := intArg(args, "max_bedrooms"); ok {
		query += " AND a.bedrooms <= ?"
		params = append(params, max)
	}
	if min, ok := floatArg(args, "min_area"); ok {
		query += " AND a.area_m2 >= ?"
		params = append(params, min)
	}
	if max, ok := floatArg(args, "max_area"); ok {
		query += " AND a.area_m2 <= ?"
		params = append(params, max)
	}
	query += " ORDER BY f.floor_number, a.number"

	rows, err := c.store.Query(ctx, query, params...)
	if err != nil {
		return errEnvelope(err.Error())
	}
	return listEnvelope(rows)
}

func handleApartmentByNumber(ctx context.Context, c *Catalog, args map[string]any) map[string]any {
	number, _ := stringArg(args, "apartment_number")

	query := `SELECT
		a.apartment_id, a.floor_id, f.floor_number, f.name AS floor_name,
		a.number AS apartment_number, a.area_m2, a.bedrooms,
		a.status, a.type, a.image, a.created_at, a.updated_at
	FROM {schema}.apartments a
	INNER JOIN {schema}.floors f ON a.floor_id = f.floor_id
	WHERE a.number = ?`

	rows, err := c.store.Query(ctx, query, number)
	if err != nil {
		return errEnvelope(err.Error())
	}
	if len(rows) == 0 {
		return errEnvelope(fmt.Sprintf("Không tìm thấy căn hộ số: %s", number))
	}
	return itemEnvelope(rows[0])
}

func handleAvailableApartments(ctx context.Context, c *Catalog, args map[string]any) map[string]any {
	filtered := map[string]any{"status": "AVAILABLE"}
	if aptType, ok := stringArg(args, "apartment_type"); ok {
		filtered["apartment_type"] = aptType
	}
	if min, ok := intArg(args, "min_bedrooms"); ok {
		filtered["min_bedrooms"] = min
	}
	return handleApartments(ctx, c, filtered)
}

func handleApartmentStatistics(ctx context.Context, c *Catalog, _ map[string]any) map[string]any {
	query := `SELECT
		COUNT(*) AS total_apartments,
		SUM(CASE WHEN status = 'AVAILABLE' THEN 1 ELSE 0 END) AS available,
		SUM(CASE WHEN status = 'OCCUPIED' THEN 1 ELSE 0 END) AS occupied,
		SUM(CASE WHEN status = 'RESERVED' THEN 1 ELSE 0 END) AS reserved,
		SUM(CASE WHEN status = 'MAINTENANCE' THEN 1 ELSE 0 END) AS maintenance,
		AVG(area_m2) AS avg_area,
		MIN(area_m2) AS min_area,
		MAX(area_m2) AS max_area
	FROM {schema}.apartments`

	rows, err := c.store.Query(ctx, query)
	if err != nil {
		return errEnvelope(err.Error())
	}
	if len(rows) == 0 {
		return errEnvelope("Không có dữ liệu thống kê")
	}

	stats := rows[0]
	avgArea, _ := asFloat(stats["avg_area"])

	return itemEnvelope(map[string]any{
		"total_apartments": stats["total_apartments"],
		"available":        stats["available"],
		"occupied":         stats["occupied"],
		"reserved":         stats["reserved"],
		"maintenance":      stats["maintenance"],
		"avg_area_m2":      math.Round(avgArea*100) / 100,
		"min_area_m2":      stats["min_area"],
		"max_area_m2":      stats["max_area"],
	})
}
