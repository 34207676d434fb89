package db

import "database/sql"

// EnsureSchema creates missing tables on startup. Reference data (stations,
// trains, routes, classes, schedules) is normally seeded out of band; the
// DDL here keeps a fresh database bootable.
func EnsureSchema(db *sql.DB) error {
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			return err
		}
	}
	return nil
}

var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS stations (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	station_code VARCHAR(10) NOT NULL,
	station_name VARCHAR(120) NOT NULL,
	city VARCHAR(80) NOT NULL,
	state VARCHAR(80) NOT NULL,
	UNIQUE KEY uniq_station_code (station_code)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS trains (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	train_number VARCHAR(10) NOT NULL,
	train_name VARCHAR(120) NOT NULL,
	train_type VARCHAR(40) NOT NULL,
	UNIQUE KEY uniq_train_number (train_number)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS train_routes (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	train_id BIGINT NOT NULL,
	station_id BIGINT NOT NULL,
	sequence_number INT NOT NULL,
	arrival_time VARCHAR(8) NOT NULL DEFAULT '',
	departure_time VARCHAR(8) NOT NULL DEFAULT '',
	UNIQUE KEY uniq_train_sequence (train_id, sequence_number),
	KEY idx_route_station (station_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS train_classes (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	train_id BIGINT NOT NULL,
	class_code VARCHAR(5) NOT NULL,
	class_name VARCHAR(60) NOT NULL,
	total_seats INT NOT NULL,
	rac_seats INT NOT NULL DEFAULT 0,
	base_fare BIGINT NOT NULL,
	UNIQUE KEY uniq_train_class (train_id, class_code)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS train_schedules (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	train_id BIGINT NOT NULL,
	journey_date DATE NOT NULL,
	UNIQUE KEY uniq_train_date (train_id, journey_date)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS seat_availability (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	schedule_id BIGINT NOT NULL,
	class_id BIGINT NOT NULL,
	from_station_id BIGINT NOT NULL,
	to_station_id BIGINT NOT NULL,
	total_seats INT NOT NULL,
	available_seats INT NOT NULL,
	rac_available INT NOT NULL DEFAULT 0,
	waiting_list INT NOT NULL DEFAULT 0,
	seats_issued INT NOT NULL DEFAULT 0,
	base_fare BIGINT NOT NULL,
	current_fare BIGINT NOT NULL,
	UNIQUE KEY uniq_availability_key (schedule_id, class_id, from_station_id, to_station_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS users (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(120) NOT NULL,
	email VARCHAR(190) NOT NULL,
	phone VARCHAR(20) NOT NULL DEFAULT '',
	password_hash VARCHAR(100) NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_user_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS bookings (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	pnr CHAR(10) NOT NULL,
	idempotency_key VARCHAR(64) NULL,
	user_id BIGINT NOT NULL,
	schedule_id BIGINT NOT NULL,
	class_id BIGINT NOT NULL,
	from_station_id BIGINT NOT NULL,
	to_station_id BIGINT NOT NULL,
	journey_date DATE NOT NULL,
	total_passengers INT NOT NULL,
	total_fare BIGINT NOT NULL,
	status VARCHAR(12) NOT NULL,
	created_at TIMESTAMP(6) DEFAULT CURRENT_TIMESTAMP(6),
	UNIQUE KEY uniq_pnr (pnr),
	UNIQUE KEY uniq_idempotency_key (idempotency_key),
	KEY idx_booking_user (user_id),
	KEY idx_booking_wait (schedule_id, class_id, from_station_id, to_station_id, status, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS passengers (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	booking_id BIGINT NOT NULL,
	name VARCHAR(120) NOT NULL,
	age INT NOT NULL,
	gender CHAR(1) NOT NULL,
	berth_preference VARCHAR(12) NULL,
	seat_number VARCHAR(12) NULL,
	waitlist_position INT NULL,
	status VARCHAR(12) NOT NULL,
	KEY idx_passenger_booking (booking_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS booking_drafts (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	token VARCHAR(40) NOT NULL,
	user_id BIGINT NOT NULL,
	state VARCHAR(24) NOT NULL,
	from_code VARCHAR(10) NOT NULL,
	to_code VARCHAR(10) NOT NULL,
	journey_date DATE NOT NULL,
	schedule_id BIGINT NULL,
	class_id BIGINT NULL,
	passenger_count INT NOT NULL DEFAULT 0,
	passengers_json TEXT NULL,
	quoted_fare BIGINT NOT NULL DEFAULT 0,
	pnr CHAR(10) NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	expires_at TIMESTAMP NULL,
	UNIQUE KEY uniq_draft_token (token)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
}
