package config

import "github.com/spf13/viper"

// 步行出行的日内强度（0点到23点）
var defaultHourlyProfile = []float64{
	0.2, 0.1, 0.1, 0.1, 0.2, 0.5,
	1.5, 3.0, 4.5, 4.0, 4.0, 5.0,
	6.0, 5.5, 5.0, 5.0, 6.0, 7.5,
	8.0, 6.5, 4.5, 3.0, 1.5, 0.5,
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("simulation.city_name", "synthetic")
	v.SetDefault("simulation.population", 1500000)
	v.SetDefault("simulation.agent_share", 0.001)
	v.SetDefault("simulation.num_agents", 0)
	v.SetDefault("simulation.meters_per_day_per_person", 4000.0)
	v.SetDefault("simulation.jobs", 1)
	v.SetDefault("simulation.days", 7)
	v.SetDefault("simulation.seed", 42)
	v.SetDefault("simulation.workers", 8)
	v.SetDefault("simulation.parallel_step", false)
	v.SetDefault("simulation.home_work_radius", 600.0)
	v.SetDefault("simulation.min_work_distance", 1000.0)
	v.SetDefault("simulation.max_work_distance", 3000.0)

	v.SetDefault("time.step_duration", 60.0)
	v.SetDefault("time.release_agents_every_steps", 10)
	v.SetDefault("time.hourly_profile", defaultHourlyProfile)
	v.SetDefault("time.decay_every_days", 6)

	v.SetDefault("learning.half_life_days", 14.0)
	v.SetDefault("learning.using_meaningfulness", false)
	v.SetDefault("learning.memory_percentile", 0.15)
	v.SetDefault("learning.cell_size", 5.0)
	v.SetDefault("learning.route_vividness_radius", 400.0)
	v.SetDefault("learning.min_walked_routes", 5)
	v.SetDefault("learning.mean_memory_routes", 0.75)
	v.SetDefault("learning.smoothing_factor", 0.2)
	v.SetDefault("learning.vividness_weight", 0.7)
	v.SetDefault("learning.min_learned_route", 10.0)
	v.SetDefault("learning.buffer_radius", 20.0)
	v.SetDefault("learning.cone_angle", 100.0)
	v.SetDefault("learning.cone_distance", 300.0)

	v.SetDefault("route_choice.threshold_turn", 45.0)
	v.SetDefault("route_choice.min_trip_distance", 700.0)
	v.SetDefault("route_choice.avg_trip_distance", 1800.0)
	v.SetDefault("route_choice.max_trip_distance", 2500.0)
	v.SetDefault("route_choice.city_centre_regions", []int32{})
	v.SetDefault("route_choice.include_tertiary", true)
	v.SetDefault("route_choice.distance_node_landmark", 50.0)
	v.SetDefault("route_choice.distance_anchors", 2000.0)
	v.SetDefault("route_choice.threshold_3d_visibility", 300.0)
	v.SetDefault("route_choice.visibility_radius", 1500.0)
	v.SetDefault("route_choice.salient_nodes_percentile", 0.90)
	v.SetDefault("route_choice.nr_anchors", 25)
	v.SetDefault("route_choice.global_landmark_threshold_community", 0.30)
	v.SetDefault("route_choice.local_landmark_threshold_community", 0.35)
	v.SetDefault("route_choice.wayfinding_easiness_threshold", 0.95)
	v.SetDefault("route_choice.wayfinding_easiness_threshold_region", 0.85)
	v.SetDefault("route_choice.region_nav_activation_threshold", 500.0)
	v.SetDefault("route_choice.global_landmark_weight_distance", 0.85)
	v.SetDefault("route_choice.global_landmark_weight_angular", 0.95)
	v.SetDefault("route_choice.view_field_angle", 70.0)
	v.SetDefault("route_choice.centrality_samples", 64)

	v.SetDefault("population.prob_using_elements", 0.63)
	v.SetDefault("population.prob_using_elements_sd", 0.05)
	v.SetDefault("population.prob_not_using_elements", 0.37)
	v.SetDefault("population.prob_not_using_elements_sd", 0.05)
	v.SetDefault("population.prob_road_distance", 0.22)
	v.SetDefault("population.prob_road_distance_sd", 0.06)
	v.SetDefault("population.prob_angular_change", 0.14)
	v.SetDefault("population.prob_angular_change_sd", 0.068)
	v.SetDefault("population.prob_local_road_distance", 0.35)
	v.SetDefault("population.prob_local_road_distance_sd", 0.06)
	v.SetDefault("population.prob_local_angular_change", 0.28)
	v.SetDefault("population.prob_local_angular_change_sd", 0.03)
	v.SetDefault("population.prob_region_based", 0.27)
	v.SetDefault("population.prob_region_based_sd", 0.09)
	v.SetDefault("population.prob_local_landmarks", 0.25)
	v.SetDefault("population.prob_local_landmarks_sd", 0.10)
	v.SetDefault("population.prob_barrier_sub_goals", 0.23)
	v.SetDefault("population.prob_barrier_sub_goals_sd", 0.08)
	v.SetDefault("population.prob_distant_landmarks", 0.34)
	v.SetDefault("population.prob_distant_landmarks_sd", 0.11)
	v.SetDefault("population.natural_barriers", 0.49)
	v.SetDefault("population.natural_barriers_sd", 0.21)
	v.SetDefault("population.severing_barriers", 0.53)
	v.SetDefault("population.severing_barriers_sd", 0.29)
	v.SetDefault("population.learner_share", 0.5)

	v.SetDefault("search.neutral_perception_mean", 1.0)
	v.SetDefault("search.neutral_perception_sd", 0.10)
	v.SetDefault("search.skew_shape", 4.0)
	v.SetDefault("search.max_backtracks", 8)

	v.SetDefault("movement.pedestrian_speed", 1.42)
	v.SetDefault("movement.speed_increment_factor", 0.20)
	v.SetDefault("movement.crowding_percentile", 80.0)
	v.SetDefault("movement.reroute_probability", 0.5)
	v.SetDefault("movement.dwell_min_minutes", 15)
	v.SetDefault("movement.dwell_max_minutes", 120)

	v.SetDefault("export.output", "")
	v.SetDefault("export.batch_size", 1000)
	v.SetDefault("export.routes", true)
}
