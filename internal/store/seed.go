package store

import (
	"context"
	"fmt"
)

// seedStatements fills a partition with a small demo dataset so the
// assistant can answer fee, amenity and apartment questions out of the box.
var seedStatements = []string{
	`INSERT OR IGNORE INTO {schema}.service_type_categories (category_id, name, description) VALUES
		(1, 'Fee', 'Các loại phí định kỳ'),
		(2, 'Utility', 'Điện, nước, internet'),
		(3, 'Service', 'Dịch vụ bổ sung')`,
	`INSERT OR IGNORE INTO {schema}.service_types
		(service_type_id, code, name, unit, is_mandatory, is_recurring, is_active, category_id) VALUES
		(1, 'MGMT_FEE', 'Phí quản lý', 'm2', 1, 1, 1, 1),
		(2, 'PARKING_CAR', 'Phí gửi xe ô tô', 'xe', 0, 1, 1, 1),
		(3, 'PARKING_BIKE', 'Phí gửi xe máy', 'xe', 0, 1, 1, 1),
		(4, 'INTERNET', 'Phí internet', 'tháng', 0, 1, 1, 2),
		(5, 'ADMIN_FEE', 'Phí hành chính', 'lần', 0, 0, 1, 1)`,
	`INSERT OR IGNORE INTO {schema}.service_prices
		(price_id, service_type_id, unit_price, effective_date, status) VALUES
		(1, 1, 15000, '2024-01-01', 'APPROVED'),
		(2, 2, 1200000, '2024-01-01', 'APPROVED'),
		(3, 3, 120000, '2024-01-01', 'APPROVED'),
		(4, 4, 220000, '2024-01-01', 'APPROVED'),
		(5, 5, 50000, '2024-01-01', 'APPROVED')`,
	`INSERT OR IGNORE INTO {schema}.amenities
		(amenity_id, code, name, category_name, location, has_monthly_package, fee_type, status, requires_face_verification) VALUES
		(1, 'GYM_01', 'Phòng gym', 'Gym', 'Tầng 3', 1, 'MONTHLY', 'ACTIVE', 1),
		(2, 'POOL_01', 'Hồ bơi', 'Pool', 'Tầng thượng', 1, 'MONTHLY', 'ACTIVE', 0),
		(3, 'MEETING_01', 'Phòng họp', 'Meeting Room', 'Tầng 2', 0, 'PER_USE', 'ACTIVE', 0)`,
	`INSERT OR IGNORE INTO {schema}.amenity_packages
		(package_id, amenity_id, name, month_count, price, status, duration_days, period_unit) VALUES
		(1, 1, 'Gym 1 tháng', 1, 300000, 'ACTIVE', 30, 'month'),
		(2, 1, 'Gym 3 tháng', 3, 800000, 'ACTIVE', 90, 'month'),
		(3, 1, 'Gym 6 tháng', 6, 1500000, 'ACTIVE', 180, 'month'),
		(4, 2, 'Hồ bơi 1 tháng', 1, 400000, 'ACTIVE', 30, 'month'),
		(5, 2, 'Hồ bơi 3 tháng', 3, 1050000, 'ACTIVE', 90, 'month')`,
	`INSERT OR IGNORE INTO {schema}.floors (floor_id, floor_number, name) VALUES
		(1, 1, 'Tầng 1'),
		(2, 2, 'Tầng 2'),
		(3, 3, 'Tầng 3'),
		(4, 5, 'Tầng 5')`,
	`INSERT OR IGNORE INTO {schema}.apartments
		(apartment_id, floor_id, number, area_m2, bedrooms, status, type) VALUES
		(1, 1, '101', 55.0, 1, 'OCCUPIED', '1BR'),
		(2, 1, '102', 80.0, 2, 'AVAILABLE', '2BR'),
		(3, 2, '201', 80.0, 2, 'AVAILABLE', '2BR'),
		(4, 2, '205', 95.5, 3, 'RESERVED', '3BR'),
		(5, 3, '301', 42.0, 0, 'AVAILABLE', 'Studio'),
		(6, 4, 'A-1203', 150.0, 3, 'MAINTENANCE', 'Penthouse')`,
}

// Seed creates the bound building's tables and fills them with demo data.
func (s *Store) Seed(ctx context.Context) error {
	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}
	for _, stmt := range seedStatements {
		if _, err := s.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("seeding partition: %w", err)
		}
	}
	return nil
}
