package llm

// FoodAnalysisPrompt is sent alongside every image. Replies are parsed
// leniently, so the model is asked for JSON but not forced into it.
const FoodAnalysisPrompt = `Analyze this food image and answer with valid JSON using exactly this structure:

{
    "food_name": "specific name of the food",
    "freshness_level": "fresh/medium/not-fresh",
    "freshness_score": 85,
    "estimated_calories": 250,
    "nutrition_summary": {
        "protein": "15g",
        "carbs": "30g",
        "fat": "8g",
        "fiber": "3g"
    },
    "analysis_summary": "detailed summary of the nutrition and freshness analysis",
    "recommendations": ["recommendation 1", "recommendation 2"]
}

Analysis guidelines:
1. Identify the food as specifically as possible.
2. Rate freshness from 0 to 100: fresh (80-100), medium (50-79), not-fresh (0-49).
3. Estimate calories from the portion size and type of food.
4. Estimate the basic nutrients: protein, carbohydrates, fat and fiber.
5. Write an informative analysis summary.
6. Give 2-3 useful recommendations.

Make sure the response is valid JSON with no extra characters.`
